// Package store is the single persistence boundary of the backend. Every
// implementation commits to one response shape per operation; callers never
// probe alternative shapes. All durable state lives behind this interface,
// so request handlers share no mutable in-process state.
package store

import (
	"context"
	"errors"

	"github.com/documate-ai/backend/internal/models"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("store: not found")

// Store persists documents, their chunks, and the conversation log.
type Store interface {
	// InsertDocument stores a new document record and returns its ID.
	InsertDocument(ctx context.Context, doc *models.Document) (string, error)

	// GetDocument returns the full document record or ErrNotFound.
	GetDocument(ctx context.Context, documentID string) (*models.Document, error)

	// ListDocuments returns the documents owned by a user.
	ListDocuments(ctx context.Context, userID string) ([]models.Document, error)

	// InsertChunks stores a document's chunks with their embeddings.
	// Chunks are written once at upload time and never updated.
	InsertChunks(ctx context.Context, documentID string, chunks []models.Chunk) error

	// ChunksByDocument returns a document's chunks in ascending index
	// order. A limit <= 0 means all chunks. A document with no chunks
	// yields an empty slice, not an error.
	ChunksByDocument(ctx context.Context, documentID string, limit int) ([]models.Chunk, error)

	// AppendConversation appends one turn to the append-only log.
	AppendConversation(ctx context.Context, conv *models.Conversation) error
}
