// The server binary exposes the DocuMate HTTP API through the Go Functions
// Framework: PDF upload, direct RAG question answering, semantic search, the
// tool-calling agent, document listing, and a model health check.
package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/joho/godotenv"

	"github.com/documate-ai/backend/internal/gcp"
	"github.com/documate-ai/backend/internal/models"
	"github.com/documate-ai/backend/internal/services"
	"github.com/documate-ai/backend/internal/store"
)

// maxUploadBytes caps the multipart form held in memory per upload request.
const maxUploadBytes = 32 << 20

// contentPreviewBytes caps the fallback text preview assembled from chunks
// when a document record carries no stored content.
const contentPreviewBytes = 20000

var (
	backend *services.Backend
	once    sync.Once
	initErr error
)

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	ctx := context.Background()
	routes := map[string]http.HandlerFunc{
		"/upload-pdf":      handleUploadPDF,
		"/ask-question":    handleAskQuestion,
		"/semantic-search": handleSemanticSearch,
		"/agent-query":     handleAgentQuery,
		"/documents":       handleListDocuments,
		"/documents/":      handleGetDocument,
		"/healthz":         handleHealthz,
	}
	for path, handler := range routes {
		if err := funcframework.RegisterHTTPFunctionContext(ctx, path, handler); err != nil {
			slog.Error("Failed to register HTTP function.", "path", path, "error", err)
			os.Exit(1)
		}
	}

	port := gcp.GetEnv("PORT", "8080")
	if err := funcframework.Start(port); err != nil {
		slog.Error("Server stopped.", "error", err)
		os.Exit(1)
	}
}

// getBackend initializes the shared service graph exactly once.
func getBackend(w http.ResponseWriter) *services.Backend {
	once.Do(func() {
		backend, initErr = services.NewBackend(context.Background())
	})
	if initErr != nil {
		slog.Error("CRITICAL: backend initialization failed.", "error", initErr)
		writeError(w, http.StatusInternalServerError, "Internal Server Error: failed to initialize service")
		return nil
	}
	return backend
}

// currentUserID stands in for real authentication. A production deployment
// would extract the user from a verified Authorization header.
func currentUserID(b *services.Backend, w http.ResponseWriter) (string, bool) {
	if b.Config.DummyUserID == "" {
		writeError(w, http.StatusInternalServerError, "DUMMY_USER_ID not set in .env for testing. Please configure it.")
		return "", false
	}
	return b.Config.DummyUserID, true
}

func handleUploadPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}
	b := getBackend(w)
	if b == nil {
		return
	}
	userID, ok := currentUserID(b, w)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request: could not parse multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file name provided.")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file name provided.")
		return
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "Only PDF files are allowed.")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request: could not read uploaded file")
		return
	}

	result, err := b.Processor.ProcessUpload(r.Context(), userID, header.Filename, content)
	if err != nil {
		slog.Error("Upload processing failed.", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process PDF: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.UploadPDFResponse{
		DocumentID:    result.DocumentID,
		ExtractedText: result.CleanedText,
		Summary:       result.Summary,
		Entities:      result.Entities,
	})
}

func handleAskQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}
	b := getBackend(w)
	if b == nil {
		return
	}
	userID, ok := currentUserID(b, w)
	if !ok {
		return
	}

	var req models.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request: could not parse JSON")
		return
	}
	if req.DocumentID == "" || req.Question == "" {
		writeError(w, http.StatusBadRequest, "document_id and question are required.")
		return
	}

	answer, err := b.QA.Ask(r.Context(), userID, req.DocumentID, req.Question)
	if err != nil {
		slog.Error("Question answering failed.", "documentId", req.DocumentID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to answer question: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.AnswerResponse{Answer: answer})
}

func handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}
	b := getBackend(w)
	if b == nil {
		return
	}
	if _, ok := currentUserID(b, w); !ok {
		return
	}

	var req models.SemanticSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request: could not parse JSON")
		return
	}
	if req.DocumentID == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, "document_id and query are required.")
		return
	}

	results, err := b.QA.Search(r.Context(), req.DocumentID, req.Query)
	if err != nil {
		slog.Error("Semantic search failed.", "documentId", req.DocumentID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to perform semantic search: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.SemanticSearchResponse{Results: results})
}

func handleAgentQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}
	b := getBackend(w)
	if b == nil {
		return
	}
	userID, ok := currentUserID(b, w)
	if !ok {
		return
	}

	var req models.AgentQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request: could not parse JSON")
		return
	}
	if req.DocumentID == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, "document_id and query are required.")
		return
	}

	result, err := b.QA.AgentQuery(r.Context(), userID, req.DocumentID, req.Query)
	if err != nil {
		slog.Error("Agent query failed.", "documentId", req.DocumentID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process agent query: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.AgentQueryResponse{
		Answer:     result.Answer,
		ToolCalls:  result.ToolCalls,
		Transcript: result.Transcript,
	})
}

func handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}
	b := getBackend(w)
	if b == nil {
		return
	}
	userID, ok := currentUserID(b, w)
	if !ok {
		return
	}

	docs, err := b.Store.ListDocuments(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to list documents.", "userId", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve documents: "+err.Error())
		return
	}

	items := make([]models.DocumentListItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, models.DocumentListItem{ID: doc.ID, Filename: doc.Filename})
	}
	writeJSON(w, http.StatusOK, items)
}

func handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}
	b := getBackend(w)
	if b == nil {
		return
	}
	userID, ok := currentUserID(b, w)
	if !ok {
		return
	}

	documentID := strings.TrimPrefix(r.URL.Path, "/documents/")
	if documentID == "" || strings.Contains(documentID, "/") {
		writeError(w, http.StatusBadRequest, "A document ID is required.")
		return
	}

	doc, err := b.Store.GetDocument(r.Context(), documentID)
	if err == store.ErrNotFound {
		writeError(w, http.StatusNotFound, "Document "+documentID+" not found")
		return
	}
	if err != nil {
		slog.Error("Failed to fetch document.", "documentId", documentID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve document: "+err.Error())
		return
	}
	// Documents are visible to their owner only.
	if doc.UserID != userID {
		writeError(w, http.StatusNotFound, "Document "+documentID+" not found")
		return
	}

	content := doc.Content
	if content == "" {
		content = chunkPreview(r.Context(), b, documentID)
	}
	writeJSON(w, http.StatusOK, models.DocumentDetailResponse{
		ID:            doc.ID,
		Filename:      doc.Filename,
		ExtractedText: content,
		Summary:       doc.Summary,
		Entities:      doc.Entities,
	})
}

// chunkPreview assembles a bounded text preview from the document's first
// chunks when the record itself carries no content.
func chunkPreview(ctx context.Context, b *services.Backend, documentID string) string {
	chunks, err := b.Store.ChunksByDocument(ctx, documentID, 10)
	if err != nil {
		slog.Error("Failed to assemble content preview from chunks.",
			"documentId", documentID, "error", err)
		return ""
	}
	var sb strings.Builder
	for _, chunk := range chunks {
		if sb.Len() >= contentPreviewBytes {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(chunk.Text)
	}
	preview := sb.String()
	if len(preview) > contentPreviewBytes {
		preview = preview[:contentPreviewBytes]
	}
	return preview
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}
	b := getBackend(w)
	if b == nil {
		return
	}

	if err := b.Gemini.Probe(r.Context()); err != nil {
		slog.Error("Gemini health probe failed.", "error", err)
		writeError(w, http.StatusInternalServerError, "Gemini API check failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Gemini API is working correctly.",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response.", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, models.ErrorResponse{Detail: detail})
}
