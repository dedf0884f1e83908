package store

import (
	"context"
	"testing"

	"github.com/documate-ai/backend/internal/models"
)

func TestMemoryStore_DocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, err := s.InsertDocument(ctx, &models.Document{
		UserID:   "user-1",
		Filename: "report.pdf",
		Summary:  "A report.",
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if doc.ID != id || doc.Filename != "report.pdf" {
		t.Errorf("unexpected document: %+v", doc)
	}
	if doc.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestMemoryStore_GetMissingDocument(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.GetDocument(context.Background(), "nope"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ListDocumentsFiltersByUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, userID := range []string{"user-1", "user-2", "user-1"} {
		if _, err := s.InsertDocument(ctx, &models.Document{UserID: userID, Filename: "f.pdf"}); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	docs, err := s.ListDocuments(ctx, "user-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 documents for user-1, got %d", len(docs))
	}
}

func TestMemoryStore_ChunksOrderedWithLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	// Inserted out of order on purpose.
	err := s.InsertChunks(ctx, "doc-1", []models.Chunk{
		{Index: 2, Text: "third"},
		{Index: 0, Text: "first"},
		{Index: 1, Text: "second"},
	})
	if err != nil {
		t.Fatalf("insert chunks failed: %v", err)
	}

	chunks, err := s.ChunksByDocument(ctx, "doc-1", 0)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("chunk %d has index %d, want ascending order", i, chunk.Index)
		}
	}

	limited, err := s.ChunksByDocument(ctx, "doc-1", 2)
	if err != nil {
		t.Fatalf("limited fetch failed: %v", err)
	}
	if len(limited) != 2 || limited[0].Text != "first" {
		t.Errorf("unexpected limited chunks: %+v", limited)
	}
}

func TestMemoryStore_ChunksForUnknownDocument(t *testing.T) {
	s := NewMemoryStore()
	chunks, err := s.ChunksByDocument(context.Background(), "missing", 0)
	if err != nil {
		t.Fatalf("expected no error for unknown document, got %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestMemoryStore_AppendConversation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.AppendConversation(ctx, &models.Conversation{
		UserID:      "user-1",
		DocumentID:  "doc-1",
		UserMessage: "What is this about?",
		AIResponse:  "A report.",
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	convs := s.Conversations()
	if len(convs) != 1 {
		t.Fatalf("expected 1 conversation turn, got %d", len(convs))
	}
	if convs[0].UserMessage != "What is this about?" || convs[0].CreatedAt.IsZero() {
		t.Errorf("unexpected conversation turn: %+v", convs[0])
	}
}
