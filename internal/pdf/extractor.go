// Package pdf turns uploaded PDF bytes into cleaned text. The byte-stream to
// text conversion itself is delegated to external libraries; this package
// only owns validation and whitespace normalization.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Extractor validates, optimizes, and extracts text from PDF documents.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText validates and optimizes the PDF, then extracts the text of
// every page, pages joined by a newline. It returns the raw extracted text
// and the page count. Cleaning is a separate step so entity offsets are
// always computed against the same cleaned text the chunker sees.
func (e *Extractor) ExtractText(content []byte) (string, int, error) {
	tempDir, err := os.MkdirTemp("", "pdf-extract-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	sourcePath := filepath.Join(tempDir, "source.pdf")
	if err := os.WriteFile(sourcePath, content, 0o600); err != nil {
		return "", 0, fmt.Errorf("failed to write source PDF: %w", err)
	}

	optimizedPath := filepath.Join(tempDir, "optimized.pdf")
	if err := optimizePDF(sourcePath, optimizedPath); err != nil {
		return "", 0, fmt.Errorf("failed to validate/optimize PDF: %w", err)
	}

	pageCount, err := api.PageCountFile(optimizedPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to get page count: %w", err)
	}

	text, err := extractPages(optimizedPath, pageCount)
	if err != nil {
		return "", 0, err
	}
	return text, pageCount, nil
}

// CleanText collapses all whitespace runs into single spaces and trims the
// result. All downstream offsets and chunks are relative to this cleaned form.
func CleanText(text string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

func optimizePDF(inPath, outPath string) error {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return api.OptimizeFile(inPath, outPath, cfg)
}

func extractPages(path string, pageCount int) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF for text extraction: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= pageCount && i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
