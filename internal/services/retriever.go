// Package services contains the application core: the upload pipeline,
// retrieval-augmented answering, and the tool-using agent loop. Services
// depend on narrow interfaces so the external model and store can be
// substituted in tests.
package services

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/documate-ai/backend/internal/gcp"
	"github.com/documate-ai/backend/internal/store"
)

// Embedder converts text into a fixed-dimension vector. Implemented by
// gcp.EmbeddingClient.
type Embedder interface {
	Embed(ctx context.Context, text, taskType string) ([]float32, error)
}

// Retriever returns the most relevant stored chunks of a single document for
// a query vector. Ranking is cosine similarity, descending, with ties broken
// by ascending chunk index so results are reproducible.
type Retriever struct {
	store    store.Store
	embedder Embedder
}

func NewRetriever(st store.Store, embedder Embedder) *Retriever {
	return &Retriever{store: st, embedder: embedder}
}

// RelevantChunks returns at most topK chunk texts, best match first. A
// document with no chunks, or a store that is unavailable for non-fatal
// reasons, yields an empty slice: "no relevant context found" is a valid
// terminal outcome, not a failure.
func (r *Retriever) RelevantChunks(ctx context.Context, documentID string, queryVec []float32, topK int) []string {
	chunks, err := r.store.ChunksByDocument(ctx, documentID, 0)
	if err != nil {
		slog.Error("Failed to fetch chunks for retrieval, degrading to empty context.",
			"documentId", documentID, "error", err)
		return nil
	}

	type scored struct {
		index int
		text  string
		score float64
	}
	var results []scored
	for _, chunk := range chunks {
		score, ok := cosineSimilarity(queryVec, chunk.Embedding)
		if !ok {
			continue
		}
		results = append(results, scored{index: chunk.Index, text: chunk.Text, score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].index < results[j].index
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}

	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.text
	}
	return texts
}

// Search embeds the query and retrieves relevant chunk texts. Embedding
// failures propagate as *gcp.EmbeddingError.
func (r *Retriever) Search(ctx context.Context, documentID, query string, topK int) ([]string, error) {
	queryVec, err := r.embedder.Embed(ctx, query, gcp.TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return r.RelevantChunks(ctx, documentID, queryVec, topK), nil
}

// cosineSimilarity reports the cosine of the angle between two vectors.
// Mismatched dimensions or zero-magnitude vectors are not comparable and
// return ok=false; callers skip those chunks.
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		na += va * va
		nb += vb * vb
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}
