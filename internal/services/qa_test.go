package services

import (
	"context"
	"testing"

	"cloud.google.com/go/vertexai/genai"

	"github.com/documate-ai/backend/internal/models"
	"github.com/documate-ai/backend/internal/store"
)

func newTestQA(s *store.MemoryStore, embedder *mockEmbedder, gen *mockGenerator, chat *scriptedChat) *QAService {
	retriever := NewRetriever(s, embedder)
	answerer := NewAnswerer(gen)
	tools := NewToolRegistry(s, retriever)
	agent := NewAgent(func() AgentChat { return chat }, tools)
	return NewQAService(retriever, answerer, agent, s)
}

func TestAsk_AnswersAndLogsConversation(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	seedChunks(t, s, "doc-1", []models.Chunk{
		{Index: 0, Text: "About 2 million people live in Paris.", Embedding: []float32{1, 0}},
	})
	gen := &mockGenerator{response: "Roughly 2 million."}
	qa := newTestQA(s, &mockEmbedder{def: []float32{1, 0}}, gen, nil)

	answer, err := qa.Ask(ctx, "user-1", "doc-1", "How many people live in Paris?")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if answer != "Roughly 2 million." {
		t.Errorf("unexpected answer: %q", answer)
	}

	convs := s.Conversations()
	if len(convs) != 1 {
		t.Fatalf("expected 1 logged turn, got %d", len(convs))
	}
	if convs[0].UserMessage != "How many people live in Paris?" || convs[0].AIResponse != "Roughly 2 million." {
		t.Errorf("unexpected logged turn: %+v", convs[0])
	}
	if convs[0].UserID != "user-1" || convs[0].DocumentID != "doc-1" {
		t.Errorf("turn not attributed correctly: %+v", convs[0])
	}
}

func TestAsk_NoContextShortCircuits(t *testing.T) {
	s := store.NewMemoryStore()
	gen := &mockGenerator{response: "should never be used"}
	qa := newTestQA(s, &mockEmbedder{}, gen, nil)

	answer, err := qa.Ask(context.Background(), "user-1", "doc-1", "anything?")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if answer != NoRelevantInfoAnswer {
		t.Errorf("expected fixed no-information answer, got %q", answer)
	}
	if gen.calls != 0 {
		t.Error("generation must not run without retrieved context")
	}
	if len(s.Conversations()) != 0 {
		t.Error("short-circuited answer must not be logged")
	}
}

func TestAsk_EmbeddingFailurePropagates(t *testing.T) {
	s := store.NewMemoryStore()
	seedChunks(t, s, "doc-1", []models.Chunk{
		{Index: 0, Text: "content", Embedding: []float32{1, 0}},
	})
	qa := newTestQA(s, &mockEmbedder{err: errBackendDown}, &mockGenerator{}, nil)

	if _, err := qa.Ask(context.Background(), "user-1", "doc-1", "q"); err == nil {
		t.Fatal("expected embedding error to propagate")
	}
	if len(s.Conversations()) != 0 {
		t.Error("failed request must not be logged")
	}
}

func TestSearch_ReturnsRankedChunks(t *testing.T) {
	s := store.NewMemoryStore()
	seedChunks(t, s, "doc-1", []models.Chunk{
		{Index: 0, Text: "weak match", Embedding: []float32{0, 1}},
		{Index: 1, Text: "strong match", Embedding: []float32{1, 0}},
	})
	qa := newTestQA(s, &mockEmbedder{def: []float32{1, 0}}, &mockGenerator{}, nil)

	results, err := qa.Search(context.Background(), "doc-1", "match")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 || results[0] != "strong match" {
		t.Errorf("unexpected results: %v", results)
	}
	if len(s.Conversations()) != 0 {
		t.Error("search must not log conversation turns")
	}
}

func TestSearch_NoMatches(t *testing.T) {
	qa := newTestQA(store.NewMemoryStore(), &mockEmbedder{}, &mockGenerator{}, nil)

	results, err := qa.Search(context.Background(), "doc-1", "query")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0] != NoSearchResultsMessage {
		t.Errorf("expected single fixed message, got %v", results)
	}
}

func TestAgentQuery_LogsFinalAnswer(t *testing.T) {
	s := store.NewMemoryStore()
	chat := &scriptedChat{responses: []*genai.GenerateContentResponse{
		textResponse("Agent answer."),
	}}
	qa := newTestQA(s, &mockEmbedder{}, &mockGenerator{}, chat)

	result, err := qa.AgentQuery(context.Background(), "user-1", "doc-1", "complex question")
	if err != nil {
		t.Fatalf("agent query failed: %v", err)
	}
	if result.Answer != "Agent answer." {
		t.Errorf("unexpected answer: %q", result.Answer)
	}

	convs := s.Conversations()
	if len(convs) != 1 || convs[0].AIResponse != "Agent answer." {
		t.Errorf("agent answer not logged: %+v", convs)
	}
}
