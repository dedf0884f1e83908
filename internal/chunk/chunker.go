// Package chunk splits cleaned document text into overlapping token-bounded
// segments, the unit of retrieval. Splitting is a pure function over its
// inputs; nothing here touches the network or the store.
package chunk

import (
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Defaults used by the upload pipeline.
const (
	DefaultMaxTokens     = 500
	DefaultOverlapTokens = 50
)

// Splitter chunks text on sub-word token boundaries when a tokenizer is
// available. When tokenizer initialization fails it degrades to
// whitespace-word chunking with a coarser overlap guarantee; callers must
// not assume token-accurate boundaries in that mode.
type Splitter struct {
	enc *tiktoken.Tiktoken
}

// NewSplitter builds a Splitter. Tokenizer failure is not fatal: the
// degraded word-based mode is used instead.
func NewSplitter() *Splitter {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		slog.Warn("Tokenizer unavailable, falling back to word-based chunking.", "error", err)
		return &Splitter{}
	}
	return &Splitter{enc: enc}
}

// Split returns ordered chunk texts where each chunk holds at most maxTokens
// tokens and consecutive chunks overlap by overlapTokens tokens (the tail of
// chunk i seeds chunk i+1). Leftover tokens after the last full chunk are
// emitted as a final, possibly shorter, chunk. Empty input yields nil.
func (s *Splitter) Split(text string, maxTokens, overlapTokens int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if overlapTokens < 0 {
		overlapTokens = 0
	}
	if overlapTokens >= maxTokens {
		overlapTokens = maxTokens - 1
	}

	if s.enc == nil {
		return s.splitWords(text, maxTokens, overlapTokens)
	}
	return s.splitTokens(text, maxTokens, overlapTokens)
}

func (s *Splitter) splitTokens(text string, maxTokens, overlapTokens int) []string {
	tokens := s.enc.Encode(text, nil, nil)

	var chunks []string
	var current []int
	for _, token := range tokens {
		current = append(current, token)
		if len(current) >= maxTokens {
			chunks = append(chunks, s.enc.Decode(current))
			// Seed the next chunk with the tail of this one.
			tail := current[len(current)-overlapTokens:]
			current = append([]int(nil), tail...)
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, s.enc.Decode(current))
	}
	return chunks
}

// splitWords approximates token chunking over whitespace words. The overlap
// is 1/5th of the configured token overlap, an explicitly coarser guarantee.
func (s *Splitter) splitWords(text string, maxTokens, overlapTokens int) []string {
	words := strings.Fields(text)

	var chunks []string
	var current []string
	for _, word := range words {
		current = append(current, word)
		if len(current) > maxTokens {
			chunks = append(chunks, strings.Join(current, " "))
			overlap := overlapTokens / 5
			tail := current[len(current)-overlap:]
			current = append([]string(nil), tail...)
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// TokenMode reports whether splitting is token-accurate.
func (s *Splitter) TokenMode() bool {
	return s.enc != nil
}
