package main

import (
	"context"
	"strings"
	"testing"

	"github.com/documate-ai/backend/internal/models"
	"github.com/documate-ai/backend/internal/services"
	"github.com/documate-ai/backend/internal/store"
)

func TestChunkPreview_JoinsChunksWithBlankLine(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	err := s.InsertChunks(ctx, "doc-1", []models.Chunk{
		{Index: 0, Text: "first chunk"},
		{Index: 1, Text: "second chunk"},
	})
	if err != nil {
		t.Fatalf("failed to seed chunks: %v", err)
	}
	b := &services.Backend{Store: s}

	got := chunkPreview(ctx, b, "doc-1")
	if got != "first chunk\n\nsecond chunk" {
		t.Errorf("unexpected preview: %q", got)
	}
}

func TestChunkPreview_CappedLength(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	long := strings.Repeat("x", contentPreviewBytes)
	err := s.InsertChunks(ctx, "doc-1", []models.Chunk{
		{Index: 0, Text: long},
		{Index: 1, Text: long},
	})
	if err != nil {
		t.Fatalf("failed to seed chunks: %v", err)
	}
	b := &services.Backend{Store: s}

	got := chunkPreview(ctx, b, "doc-1")
	if len(got) > contentPreviewBytes {
		t.Errorf("preview exceeds cap: %d bytes", len(got))
	}
}

func TestChunkPreview_UnknownDocument(t *testing.T) {
	b := &services.Backend{Store: store.NewMemoryStore()}
	if got := chunkPreview(context.Background(), b, "missing"); got != "" {
		t.Errorf("expected empty preview, got %q", got)
	}
}
