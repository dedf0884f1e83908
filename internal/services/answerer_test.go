package services

import (
	"context"
	"strings"
	"testing"
)

func TestAnswer_GroundsPromptInContext(t *testing.T) {
	gen := &mockGenerator{response: "Paris has about 2 million residents."}
	a := NewAnswerer(gen)

	answer := a.Answer(context.Background(), "How many people live in Paris?", []string{
		"Paris is the capital of France.",
		"About 2 million people live in Paris proper.",
	})

	if answer != "Paris has about 2 million residents." {
		t.Errorf("unexpected answer: %q", answer)
	}
	if !strings.Contains(gen.lastPrompt, "About 2 million people live in Paris proper.") {
		t.Error("prompt missing retrieved context")
	}
	if !strings.Contains(gen.lastPrompt, "How many people live in Paris?") {
		t.Error("prompt missing the question")
	}
	// Chunks are joined with a blank line between them.
	if !strings.Contains(gen.lastPrompt, "Paris is the capital of France.\n\nAbout 2 million") {
		t.Error("context chunks not joined in retrieval order")
	}
}

func TestAnswer_FallbackOnGenerationFailure(t *testing.T) {
	a := NewAnswerer(&mockGenerator{err: errBackendDown})

	answer := a.Answer(context.Background(), "anything", []string{"context"})
	if answer != answerFallback {
		t.Errorf("expected fallback answer, got %q", answer)
	}
}
