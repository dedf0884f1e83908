package models

import "time"

// Document is the master record for an uploaded PDF. It is created once
// during upload processing and never mutated afterwards except for the
// derived Summary and Entities fields.
type Document struct {
	ID          string    `firestore:"-" json:"id"`
	UserID      string    `firestore:"userId,omitempty" json:"user_id"`
	Filename    string    `firestore:"filename,omitempty" json:"filename"`
	StoragePath string    `firestore:"storagePath,omitempty" json:"storage_path"`
	Content     string    `firestore:"content,omitempty" json:"content,omitempty"`
	Summary     string    `firestore:"summary,omitempty" json:"summary"`
	Entities    []Entity  `firestore:"entities,omitempty" json:"entities"`
	CreatedAt   time.Time `firestore:"createdAt,omitempty" json:"created_at"`
}

// Entity is a named entity extracted from a document's cleaned text.
// Start and End are byte offsets of the first occurrence of Text in the
// cleaned text; they are nil when the text could not be located. Repeated
// mentions of the same entity are not individually annotated.
type Entity struct {
	Text  string `firestore:"text" json:"text"`
	Label string `firestore:"label" json:"label"`
	Start *int   `firestore:"start,omitempty" json:"start,omitempty"`
	End   *int   `firestore:"end,omitempty" json:"end,omitempty"`
}

// Chunk is a bounded segment of a document's cleaned text together with its
// embedding vector. Indices for a document are contiguous starting at 0, and
// concatenating chunk texts in index order reproduces an order-preserving
// (overlap-duplicated) reconstruction of the cleaned text.
type Chunk struct {
	DocumentID string    `firestore:"documentId" json:"document_id"`
	Index      int       `firestore:"chunkIndex" json:"chunk_index"`
	Text       string    `firestore:"chunkText" json:"chunk_text"`
	Embedding  []float32 `firestore:"embedding,omitempty" json:"-"`
}

// Conversation is one question/answer turn. The log is append-only.
type Conversation struct {
	UserID      string    `firestore:"userId" json:"user_id"`
	DocumentID  string    `firestore:"documentId" json:"document_id"`
	UserMessage string    `firestore:"userMessage" json:"user_message"`
	AIResponse  string    `firestore:"aiResponse" json:"ai_response"`
	CreatedAt   time.Time `firestore:"createdAt,omitempty" json:"created_at"`
}

// ToolCall records a single tool invocation made by the agent during one
// query. Tool calls are returned to the caller for observability and are not
// persisted.
type ToolCall struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}
