package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/documate-ai/backend/internal/models"
)

// MemoryStore is an in-process Store used by tests and demo runs. It keeps
// the same contracts as the durable implementations.
type MemoryStore struct {
	mu            sync.RWMutex
	nextID        int
	documents     map[string]models.Document
	chunks        map[string][]models.Chunk
	conversations []models.Conversation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]models.Document),
		chunks:    make(map[string][]models.Chunk),
	}
}

func (s *MemoryStore) InsertDocument(ctx context.Context, doc *models.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := fmt.Sprintf("doc-%d", s.nextID)
	stored := *doc
	stored.ID = id
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.documents[id] = stored
	return id, nil
}

func (s *MemoryStore) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	return &doc, nil
}

func (s *MemoryStore) ListDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []models.Document
	for _, doc := range s.documents {
		if doc.UserID == userID {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *MemoryStore) InsertChunks(ctx context.Context, documentID string, chunks []models.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		chunk.DocumentID = documentID
		s.chunks[documentID] = append(s.chunks[documentID], chunk)
	}
	sort.Slice(s.chunks[documentID], func(i, j int) bool {
		return s.chunks[documentID][i].Index < s.chunks[documentID][j].Index
	})
	return nil
}

func (s *MemoryStore) ChunksByDocument(ctx context.Context, documentID string, limit int) ([]models.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := s.chunks[documentID]
	if limit > 0 && len(chunks) > limit {
		chunks = chunks[:limit]
	}
	out := make([]models.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

func (s *MemoryStore) AppendConversation(ctx context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *conv
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.conversations = append(s.conversations, stored)
	return nil
}

// Conversations returns a copy of the log, oldest first.
func (s *MemoryStore) Conversations() []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}
