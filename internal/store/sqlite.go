package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/documate-ai/backend/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    filename TEXT NOT NULL,
    storage_path TEXT,
    content TEXT,
    summary TEXT,
    entities TEXT,
    created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS document_chunks (
    document_id TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    chunk_text TEXT NOT NULL,
    embedding BLOB,
    PRIMARY KEY (document_id, chunk_index)
);
CREATE TABLE IF NOT EXISTS conversations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    document_id TEXT NOT NULL,
    user_message TEXT NOT NULL,
    ai_response TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
`

// SQLiteStore is a single-node Store for local deployments. Embeddings are
// stored as little-endian float32 BLOBs.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertDocument(ctx context.Context, doc *models.Document) (string, error) {
	id := uuid.NewString()
	entities, err := json.Marshal(doc.Entities)
	if err != nil {
		return "", fmt.Errorf("failed to encode entities: %w", err)
	}
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, user_id, filename, storage_path, content, summary, entities, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, doc.UserID, doc.Filename, doc.StoragePath, doc.Content, doc.Summary, string(entities), createdAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert document metadata: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, filename, storage_path, content, summary, entities, created_at
		 FROM documents WHERE id = ?`, documentID)

	var doc models.Document
	var entities string
	err := row.Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.StoragePath,
		&doc.Content, &doc.Summary, &entities, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document %s: %w", documentID, err)
	}
	if entities != "" {
		if err := json.Unmarshal([]byte(entities), &doc.Entities); err != nil {
			return nil, fmt.Errorf("failed to decode entities for document %s: %w", documentID, err)
		}
	}
	return &doc, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, created_at FROM documents WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents for user %s: %w", userID, err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc := models.Document{UserID: userID}
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) InsertChunks(ctx context.Context, documentID string, chunks []models.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin chunk transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO document_chunks (document_id, chunk_index, chunk_text, embedding) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, documentID, chunk.Index, chunk.Text, EncodeVector(chunk.Embedding)); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.Index, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ChunksByDocument(ctx context.Context, documentID string, limit int) ([]models.Chunk, error) {
	query := `SELECT chunk_index, chunk_text, embedding FROM document_chunks
		  WHERE document_id = ? ORDER BY chunk_index`
	args := []any{documentID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chunks for document %s: %w", documentID, err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		chunk := models.Chunk{DocumentID: documentID}
		var blob []byte
		if err := rows.Scan(&chunk.Index, &chunk.Text, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		if chunk.Embedding, err = DecodeVector(blob); err != nil {
			return nil, fmt.Errorf("chunk %d of document %s: %w", chunk.Index, documentID, err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStore) AppendConversation(ctx context.Context, conv *models.Conversation) error {
	createdAt := conv.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (user_id, document_id, user_message, ai_response, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		conv.UserID, conv.DocumentID, conv.UserMessage, conv.AIResponse, createdAt)
	if err != nil {
		return fmt.Errorf("failed to append conversation turn: %w", err)
	}
	return nil
}
