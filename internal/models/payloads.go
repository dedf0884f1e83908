package models

// These structs define the JSON payloads exchanged between the HTTP layer
// and clients. The service layer never depends on them.

// QuestionRequest is the input for the direct RAG endpoint.
type QuestionRequest struct {
	DocumentID string `json:"document_id"`
	Question   string `json:"question"`
}

// AnswerResponse carries a direct RAG answer.
type AnswerResponse struct {
	Answer string `json:"answer"`
}

// SemanticSearchRequest is the input for the semantic-search endpoint.
type SemanticSearchRequest struct {
	DocumentID string `json:"document_id"`
	Query      string `json:"query"`
}

// SemanticSearchResponse lists matching chunk texts, best match first.
type SemanticSearchResponse struct {
	Results []string `json:"results"`
}

// UploadPDFResponse is returned after a PDF has been fully processed.
type UploadPDFResponse struct {
	DocumentID    string   `json:"document_id"`
	ExtractedText string   `json:"extracted_text"`
	Summary       string   `json:"summary"`
	Entities      []Entity `json:"entities"`
}

// AgentQueryRequest is the input for the agentic query endpoint.
type AgentQueryRequest struct {
	DocumentID string `json:"document_id"`
	Query      string `json:"query"`
}

// AgentQueryResponse carries the agent's final answer plus the tool calls
// it made, in invocation order, for observability.
type AgentQueryResponse struct {
	Answer     string     `json:"answer"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	Transcript string     `json:"transcript,omitempty"`
}

// DocumentListItem is one entry in a user's document listing.
type DocumentListItem struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

// DocumentDetailResponse is the full document view returned by
// GET /documents/{id}.
type DocumentDetailResponse struct {
	ID            string   `json:"id"`
	Filename      string   `json:"filename"`
	ExtractedText string   `json:"extracted_text"`
	Summary       string   `json:"summary"`
	Entities      []Entity `json:"entities"`
}

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
