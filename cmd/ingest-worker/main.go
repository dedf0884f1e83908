// The ingest-worker binary processes PDFs dropped directly into the upload
// bucket. A GCS object-finalize event triggers the same pipeline the HTTP
// upload endpoint runs, so bulk drops and API uploads converge on identical
// document records.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/joho/godotenv"

	"github.com/documate-ai/backend/internal/gcp"
	"github.com/documate-ai/backend/internal/services"
)

// GCSEvent is the payload of a storage object-finalize CloudEvent.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

var (
	backend *services.Backend
	once    sync.Once
	initErr error
)

func init() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	functions.CloudEvent("IngestPDF", ingestPDF)
}

// main is required by the Go Functions Framework.
func main() {}

// ingestPDF is the CloudEvent entry point.
func ingestPDF(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		backend, initErr = services.NewBackend(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	return processObject(ctx, backend, gcsEvent)
}

// processObject downloads the finalized object and runs the upload pipeline.
// Non-PDF objects and the pipeline's own archive writes are skipped, not
// failed, so the trigger never retries them.
func processObject(ctx context.Context, b *services.Backend, event GCSEvent) error {
	logCtx := slog.With("bucket", event.Bucket, "object", event.Name)

	if !strings.HasSuffix(strings.ToLower(event.Name), ".pdf") {
		logCtx.Info("Skipping non-PDF object.")
		return nil
	}
	// Objects under documents/ are the pipeline's own archive copies.
	if strings.HasPrefix(event.Name, "documents/") {
		logCtx.Info("Skipping already-archived object.")
		return nil
	}
	userID := b.Config.DummyUserID
	if userID == "" {
		return fmt.Errorf("DUMMY_USER_ID environment variable not set")
	}

	content, err := gcp.ReadObject(ctx, b.Bucket, event.Name)
	if err != nil {
		logCtx.Error("Failed to download object.", "error", err)
		return err
	}

	result, err := b.Processor.ProcessUpload(ctx, userID, path.Base(event.Name), content)
	if err != nil {
		logCtx.Error("Ingest processing failed.", "error", err)
		return err
	}
	logCtx.Info("Ingest complete.", "documentId", result.DocumentID, "chunkCount", result.ChunkCount)
	return nil
}
