package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/documate-ai/backend/internal/store"
)

// semanticSearchTopK is the chunk count fed back to the agent per search.
const semanticSearchTopK = 5

// toolFunc is one agent capability. A tool never fails past its boundary:
// internal errors are converted into descriptive string results so the agent
// loop can feed them back to the model as conversational content.
type toolFunc func(ctx context.Context, args map[string]any) string

// ToolRegistry is the fixed, closed set of document-scoped tools available
// to the agent. There is no registration API.
type ToolRegistry struct {
	store     store.Store
	retriever *Retriever
	tools     map[string]toolFunc
}

func NewToolRegistry(st store.Store, retriever *Retriever) *ToolRegistry {
	r := &ToolRegistry{store: st, retriever: retriever}
	r.tools = map[string]toolFunc{
		"get_document_summary":     r.getDocumentSummary,
		"get_document_entities":    r.getDocumentEntities,
		"semantic_search_document": r.semanticSearchDocument,
	}
	return r
}

// Has reports whether name is a registered tool.
func (r *ToolRegistry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// ExpectsDocumentID reports whether the named tool's schema takes a
// document_id parameter. Every tool in the fixed set does; the agent loop
// uses this to inject the caller-scoped document ID.
func (r *ToolRegistry) ExpectsDocumentID(name string) bool {
	return r.Has(name)
}

// Execute runs a registered tool and returns its string result. The caller
// must check Has first; executing an unregistered name returns an error
// string rather than panicking.
func (r *ToolRegistry) Execute(ctx context.Context, name string, args map[string]any) string {
	tool, ok := r.tools[name]
	if !ok {
		return fmt.Sprintf("Agent tried to call unknown tool: %s", name)
	}
	return tool(ctx, args)
}

func (r *ToolRegistry) getDocumentSummary(ctx context.Context, args map[string]any) string {
	documentID := stringArg(args, "document_id")
	doc, err := r.store.GetDocument(ctx, documentID)
	if err == store.ErrNotFound {
		return fmt.Sprintf("No summary found for document ID: %s", documentID)
	}
	if err != nil {
		return fmt.Sprintf("Error retrieving summary for document ID %s: %v", documentID, err)
	}
	if doc.Summary == "" {
		return fmt.Sprintf("No summary found for document ID: %s", documentID)
	}
	return doc.Summary
}

func (r *ToolRegistry) getDocumentEntities(ctx context.Context, args map[string]any) string {
	documentID := stringArg(args, "document_id")
	doc, err := r.store.GetDocument(ctx, documentID)
	if err == store.ErrNotFound {
		return fmt.Sprintf("No entities found for document ID: %s", documentID)
	}
	if err != nil {
		return fmt.Sprintf("Error retrieving entities for document ID %s: %v", documentID, err)
	}
	if len(doc.Entities) == 0 {
		return fmt.Sprintf("No entities found for document ID: %s", documentID)
	}
	// The model parses this as JSON.
	encoded, err := json.Marshal(doc.Entities)
	if err != nil {
		return fmt.Sprintf("Error retrieving entities for document ID %s: %v", documentID, err)
	}
	return string(encoded)
}

func (r *ToolRegistry) semanticSearchDocument(ctx context.Context, args map[string]any) string {
	documentID := stringArg(args, "document_id")
	query := stringArg(args, "query")

	chunks, err := r.retriever.Search(ctx, documentID, query, semanticSearchTopK)
	if err != nil {
		return fmt.Sprintf("Error performing semantic search for document ID %s: %v", documentID, err)
	}
	if len(chunks) == 0 {
		return fmt.Sprintf("No relevant sections found for query '%s' in document ID: %s", query, documentID)
	}

	result := "Relevant sections:\n"
	for i, chunk := range chunks {
		if i > 0 {
			result += "\n---\n"
		}
		result += chunk
	}
	return result
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
