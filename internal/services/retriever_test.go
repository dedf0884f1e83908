package services

import (
	"context"
	"testing"

	"github.com/documate-ai/backend/internal/models"
	"github.com/documate-ai/backend/internal/store"
)

func seedChunks(t *testing.T, s *store.MemoryStore, documentID string, chunks []models.Chunk) {
	t.Helper()
	if err := s.InsertChunks(context.Background(), documentID, chunks); err != nil {
		t.Fatalf("failed to seed chunks: %v", err)
	}
}

func TestRelevantChunks_RanksByCosineSimilarity(t *testing.T) {
	s := store.NewMemoryStore()
	seedChunks(t, s, "doc-1", []models.Chunk{
		{Index: 0, Text: "orthogonal", Embedding: []float32{0, 1}},
		{Index: 1, Text: "aligned", Embedding: []float32{1, 0}},
		{Index: 2, Text: "diagonal", Embedding: []float32{1, 1}},
	})
	r := NewRetriever(s, &mockEmbedder{})

	got := r.RelevantChunks(context.Background(), "doc-1", []float32{1, 0}, 0)
	want := []string{"aligned", "diagonal", "orthogonal"}
	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rank %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRelevantChunks_TiesBreakByChunkIndex(t *testing.T) {
	s := store.NewMemoryStore()
	// Index 2 and index 0 score identically; index 0 must come first.
	seedChunks(t, s, "doc-1", []models.Chunk{
		{Index: 2, Text: "later", Embedding: []float32{1, 0}},
		{Index: 0, Text: "earlier", Embedding: []float32{1, 0}},
	})
	r := NewRetriever(s, &mockEmbedder{})

	got := r.RelevantChunks(context.Background(), "doc-1", []float32{1, 0}, 0)
	if len(got) != 2 || got[0] != "earlier" || got[1] != "later" {
		t.Errorf("expected tie broken by ascending index, got %v", got)
	}
}

func TestRelevantChunks_TopKTruncates(t *testing.T) {
	s := store.NewMemoryStore()
	seedChunks(t, s, "doc-1", []models.Chunk{
		{Index: 0, Text: "a", Embedding: []float32{1, 0}},
		{Index: 1, Text: "b", Embedding: []float32{1, 0.1}},
		{Index: 2, Text: "c", Embedding: []float32{1, 0.2}},
	})
	r := NewRetriever(s, &mockEmbedder{})

	got := r.RelevantChunks(context.Background(), "doc-1", []float32{1, 0}, 2)
	if len(got) != 2 {
		t.Errorf("expected topK=2 results, got %d", len(got))
	}
}

func TestRelevantChunks_SkipsIncomparableVectors(t *testing.T) {
	s := store.NewMemoryStore()
	seedChunks(t, s, "doc-1", []models.Chunk{
		{Index: 0, Text: "wrong dims", Embedding: []float32{1, 0, 0}},
		{Index: 1, Text: "zero vector", Embedding: []float32{0, 0}},
		{Index: 2, Text: "valid", Embedding: []float32{1, 0}},
	})
	r := NewRetriever(s, &mockEmbedder{})

	got := r.RelevantChunks(context.Background(), "doc-1", []float32{1, 0}, 0)
	if len(got) != 1 || got[0] != "valid" {
		t.Errorf("expected only the comparable chunk, got %v", got)
	}
}

func TestRelevantChunks_EmptyDocument(t *testing.T) {
	r := NewRetriever(store.NewMemoryStore(), &mockEmbedder{})
	if got := r.RelevantChunks(context.Background(), "doc-1", []float32{1, 0}, 5); len(got) != 0 {
		t.Errorf("expected no chunks for empty document, got %v", got)
	}
}

func TestSearch_EmbedsQueryWithRetrievalTask(t *testing.T) {
	s := store.NewMemoryStore()
	seedChunks(t, s, "doc-1", []models.Chunk{
		{Index: 0, Text: "hit", Embedding: []float32{1, 0}},
	})
	embedder := &mockEmbedder{def: []float32{1, 0}}
	r := NewRetriever(s, embedder)

	got, err := r.Search(context.Background(), "doc-1", "query", 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 1 || got[0] != "hit" {
		t.Errorf("unexpected results: %v", got)
	}
	if embedder.lastTaskType != "RETRIEVAL_QUERY" {
		t.Errorf("expected query task type, got %q", embedder.lastTaskType)
	}
}

func TestSearch_PropagatesEmbeddingError(t *testing.T) {
	r := NewRetriever(store.NewMemoryStore(), &mockEmbedder{err: errBackendDown})
	if _, err := r.Search(context.Background(), "doc-1", "query", 5); err == nil {
		t.Error("expected embedding error to propagate")
	}
}
