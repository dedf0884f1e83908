package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// SaveToGCSAtomically writes content to a GCS object only if it doesn't
// already exist. A precondition failure means another request already wrote
// the object, which is not a failure in an idempotent upload flow.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName, contentType string, content []byte) error {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			slog.Info("Skipping GCS write, object already exists.", "object", objectName)
			return nil
		}
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		// The precondition may only be checked when the write is finalized.
		if isPreconditionFailed(err) {
			slog.Info("Skipping GCS write, object already exists.", "object", objectName)
			return nil
		}
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

// isPreconditionFailed reports whether err is the HTTP 412 a DoesNotExist
// condition produces when the object is already there.
func isPreconditionFailed(err error) bool {
	gerr, ok := err.(*googleapi.Error)
	return ok && gerr.Code == 412
}

// PDFBucket binds the PDF archive operations to one GCS bucket.
type PDFBucket struct {
	bucket *storage.BucketHandle
}

func NewPDFBucket(bucket *storage.BucketHandle) *PDFBucket {
	return &PDFBucket{bucket: bucket}
}

// SavePDF archives an uploaded PDF under documents/{userID}/{filename} and
// returns the object path for the document record. The write is conditional
// on the object not existing, so a retried upload or a re-delivered ingest
// event never rewrites the archive copy.
func (b *PDFBucket) SavePDF(ctx context.Context, userID, filename string, content []byte) (string, error) {
	objectName := fmt.Sprintf("documents/%s/%s", userID, filename)
	if err := SaveToGCSAtomically(ctx, b.bucket, objectName, "application/pdf", content); err != nil {
		return "", fmt.Errorf("failed to archive PDF: %w", err)
	}
	return objectName, nil
}

// ReadObject downloads a whole object. Used by the ingest worker to fetch
// PDFs dropped directly into the bucket.
func ReadObject(ctx context.Context, bucket *storage.BucketHandle, objectName string) ([]byte, error) {
	reader, err := bucket.Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object %q: %w", objectName, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object %q: %w", objectName, err)
	}
	return content, nil
}
