package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/documate-ai/backend/internal/gcp"
)

// NoRelevantInfoAnswer is returned when retrieval produced no context.
// Callers short-circuit with it instead of invoking the answerer.
const NoRelevantInfoAnswer = "I couldn't find relevant information in the document to answer your question. Please try rephrasing or asking a different question."

// answerFallback is returned when the generation backend fails. A raw error
// is never surfaced as "the answer".
const answerFallback = "I apologize, but I couldn't generate an answer at this time."

// Generator produces text from a prompt. Implemented by gcp.TextModel.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Answerer produces an answer grounded in retrieved context. The prompt
// instructs the model to say it does not know rather than fabricate; a
// "don't know" style response is therefore a valid answer, not a failure.
type Answerer struct {
	generator Generator
}

func NewAnswerer(generator Generator) *Answerer {
	return &Answerer{generator: generator}
}

// Answer builds the grounding prompt from the context chunks (in retrieval
// order) and the question, and returns the model's answer. Must not be
// called with empty context; callers short-circuit to NoRelevantInfoAnswer.
func (a *Answerer) Answer(ctx context.Context, question string, contextChunks []string) string {
	grounding := strings.Join(contextChunks, "\n\n")
	prompt := fmt.Sprintf(gcp.AnswerPromptTemplate, grounding, question)

	answer, err := a.generator.GenerateText(ctx, prompt)
	if err != nil {
		slog.Error("Failed to generate grounded answer.", "error", err)
		return answerFallback
	}
	return answer
}
