package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/documate-ai/backend/internal/chunk"
	"github.com/documate-ai/backend/internal/gcp"
	"github.com/documate-ai/backend/internal/models"
	"github.com/documate-ai/backend/internal/pdf"
	"github.com/documate-ai/backend/internal/store"
)

// summaryFallback is stored when summary generation fails; a failed summary
// does not fail the upload.
const summaryFallback = "Failed to generate summary."

// embedConcurrency bounds parallel embedding calls during upload.
const embedConcurrency = 10

// TextExtractor converts PDF bytes into raw text plus a page count.
// Implemented by pdf.Extractor.
type TextExtractor interface {
	ExtractText(content []byte) (string, int, error)
}

// PDFArchiver stores the original PDF bytes and returns the storage path.
// Implemented by gcp.PDFBucket.
type PDFArchiver interface {
	SavePDF(ctx context.Context, userID, filename string, content []byte) (string, error)
}

// UploadResult is returned to the transport layer after a PDF has been
// fully processed.
type UploadResult struct {
	DocumentID  string
	CleanedText string
	Summary     string
	Entities    []models.Entity
	ChunkCount  int
	PageCount   int
}

// Processor runs the upload pipeline: extract and clean text, archive the
// PDF, generate summary and entities, chunk, embed, and persist.
type Processor struct {
	extractor     TextExtractor
	archiver      PDFArchiver
	summarizer    Generator
	entityModel   Generator
	embedder      Embedder
	splitter      *chunk.Splitter
	store         store.Store
	maxTokens     int
	overlapTokens int
}

func NewProcessor(
	extractor TextExtractor,
	archiver PDFArchiver,
	summarizer, entityModel Generator,
	embedder Embedder,
	splitter *chunk.Splitter,
	st store.Store,
) *Processor {
	return &Processor{
		extractor:     extractor,
		archiver:      archiver,
		summarizer:    summarizer,
		entityModel:   entityModel,
		embedder:      embedder,
		splitter:      splitter,
		store:         st,
		maxTokens:     chunk.DefaultMaxTokens,
		overlapTokens: chunk.DefaultOverlapTokens,
	}
}

// ProcessUpload processes one uploaded PDF for one user. Summary and entity
// generation run concurrently and degrade independently; an embedding
// failure aborts the upload.
func (p *Processor) ProcessUpload(ctx context.Context, userID, filename string, content []byte) (*UploadResult, error) {
	logCtx := slog.With("userId", userID, "filename", filename)
	logCtx.Info("Starting upload processing.")

	rawText, pageCount, err := p.extractor.ExtractText(content)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from PDF: %w", err)
	}
	cleanedText := pdf.CleanText(rawText)
	logCtx.Info("Extracted text.", "pageCount", pageCount, "bytes", len(cleanedText))

	storagePath, err := p.archiver.SavePDF(ctx, userID, filename, content)
	if err != nil {
		return nil, fmt.Errorf("failed to archive PDF: %w", err)
	}

	// Summary and entity extraction are independent of each other; run
	// them concurrently and join before persisting.
	var summary string
	var entities []models.Entity
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		summary = p.generateSummary(gctx, cleanedText, logCtx)
		return nil
	})
	eg.Go(func() error {
		entities = p.extractEntities(gctx, cleanedText, logCtx)
		return nil
	})
	_ = eg.Wait()

	documentID, err := p.store.InsertDocument(ctx, &models.Document{
		UserID:      userID,
		Filename:    filename,
		StoragePath: storagePath,
		Content:     cleanedText,
		Summary:     summary,
		Entities:    entities,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert document metadata: %w", err)
	}
	logCtx = logCtx.With("documentId", documentID)

	chunks, err := p.embedChunks(ctx, documentID, cleanedText)
	if err != nil {
		// Embedding failure aborts the upload; the caller translates it.
		return nil, err
	}
	if err := p.store.InsertChunks(ctx, documentID, chunks); err != nil {
		return nil, fmt.Errorf("failed to insert chunks: %w", err)
	}
	logCtx.Info("Upload processing complete.", "chunkCount", len(chunks))

	return &UploadResult{
		DocumentID:  documentID,
		CleanedText: cleanedText,
		Summary:     summary,
		Entities:    entities,
		ChunkCount:  len(chunks),
		PageCount:   pageCount,
	}, nil
}

func (p *Processor) generateSummary(ctx context.Context, text string, logCtx *slog.Logger) string {
	summary, err := p.summarizer.GenerateText(ctx, fmt.Sprintf(gcp.SummaryPromptTemplate, text))
	if err != nil {
		logCtx.Error("Summary generation failed.", "error", err)
		return summaryFallback
	}
	return summary
}

// entityMention is the shape the entity model returns before offsets are
// resolved.
type entityMention struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

func (p *Processor) extractEntities(ctx context.Context, text string, logCtx *slog.Logger) []models.Entity {
	raw, err := p.entityModel.GenerateText(ctx, fmt.Sprintf(gcp.EntityPromptTemplate, text))
	if err != nil {
		logCtx.Error("Entity extraction failed.", "error", err)
		return nil
	}

	var mentions []entityMention
	if err := json.Unmarshal([]byte(gcp.StripFences(raw)), &mentions); err != nil {
		logCtx.Error("Failed to parse entity JSON from model.", "error", err)
		return nil
	}
	return resolveEntityOffsets(text, mentions)
}

// resolveEntityOffsets locates each mention in the cleaned text. Offsets
// point at the first occurrence only; repeated mentions of the same entity
// collapse onto it. A mention that cannot be located keeps nil offsets.
func resolveEntityOffsets(cleanedText string, mentions []entityMention) []models.Entity {
	var entities []models.Entity
	for _, mention := range mentions {
		if mention.Text == "" || mention.Label == "" {
			continue
		}
		entity := models.Entity{Text: mention.Text, Label: mention.Label}
		if start := strings.Index(cleanedText, mention.Text); start >= 0 {
			end := start + len(mention.Text)
			entity.Start = &start
			entity.End = &end
		}
		entities = append(entities, entity)
	}
	return entities
}

// embedChunks splits the cleaned text and embeds every chunk with bounded
// parallelism. Chunk indices are assigned before embedding so they stay
// gapless and in document order regardless of completion order.
func (p *Processor) embedChunks(ctx context.Context, documentID, cleanedText string) ([]models.Chunk, error) {
	texts := p.splitter.Split(cleanedText, p.maxTokens, p.overlapTokens)
	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.Chunk{DocumentID: documentID, Index: i, Text: text}
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(embedConcurrency)
	for i := range chunks {
		eg.Go(func() error {
			vec, err := p.embedder.Embed(gctx, chunks[i].Text, gcp.TaskRetrievalDocument)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			chunks[i].Embedding = vec
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}
