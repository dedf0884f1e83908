package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/documate-ai/backend/internal/models"
)

// Firestore collection names.
const (
	documentsCollection     = "documents"
	chunksCollection        = "document_chunks"
	conversationsCollection = "conversations"
)

// FirestoreStore is the production Store backed by Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// chunkDoc is the Firestore representation of a chunk. The embedding is
// stored as a Firestore vector value.
type chunkDoc struct {
	DocumentID string             `firestore:"documentId"`
	ChunkIndex int                `firestore:"chunkIndex"`
	ChunkText  string             `firestore:"chunkText"`
	Embedding  firestore.Vector32 `firestore:"embedding"`
}

func (s *FirestoreStore) InsertDocument(ctx context.Context, doc *models.Document) (string, error) {
	docRef, _, err := s.client.Collection(documentsCollection).Add(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to insert document metadata: %w", err)
	}
	return docRef.ID, nil
}

func (s *FirestoreStore) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	snap, err := s.client.Collection(documentsCollection).Doc(documentID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch document %s: %w", documentID, err)
	}
	var doc models.Document
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", documentID, err)
	}
	doc.ID = snap.Ref.ID
	return &doc, nil
}

func (s *FirestoreStore) ListDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	it := s.client.Collection(documentsCollection).Where("userId", "==", userID).Documents(ctx)
	defer it.Stop()

	var docs []models.Document
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list documents for user %s: %w", userID, err)
		}
		var doc models.Document
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", snap.Ref.ID, err)
		}
		doc.ID = snap.Ref.ID
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *FirestoreStore) InsertChunks(ctx context.Context, documentID string, chunks []models.Chunk) error {
	bw := s.client.BulkWriter(ctx)
	coll := s.client.Collection(chunksCollection)
	for _, chunk := range chunks {
		cd := chunkDoc{
			DocumentID: documentID,
			ChunkIndex: chunk.Index,
			ChunkText:  chunk.Text,
			Embedding:  firestore.Vector32(chunk.Embedding),
		}
		if _, err := bw.Create(coll.NewDoc(), cd); err != nil {
			bw.End()
			return fmt.Errorf("failed to enqueue chunk %d: %w", chunk.Index, err)
		}
	}
	bw.End()
	return nil
}

func (s *FirestoreStore) ChunksByDocument(ctx context.Context, documentID string, limit int) ([]models.Chunk, error) {
	q := s.client.Collection(chunksCollection).
		Where("documentId", "==", documentID).
		OrderBy("chunkIndex", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	it := q.Documents(ctx)
	defer it.Stop()

	var chunks []models.Chunk
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chunks for document %s: %w", documentID, err)
		}
		var cd chunkDoc
		if err := snap.DataTo(&cd); err != nil {
			return nil, fmt.Errorf("failed to decode chunk: %w", err)
		}
		chunks = append(chunks, models.Chunk{
			DocumentID: cd.DocumentID,
			Index:      cd.ChunkIndex,
			Text:       cd.ChunkText,
			Embedding:  []float32(cd.Embedding),
		})
	}
	return chunks, nil
}

func (s *FirestoreStore) AppendConversation(ctx context.Context, conv *models.Conversation) error {
	if _, _, err := s.client.Collection(conversationsCollection).Add(ctx, conv); err != nil {
		return fmt.Errorf("failed to append conversation turn: %w", err)
	}
	return nil
}
