package services

import (
	"context"
	"errors"
	"sync"
)

// mockEmbedder returns canned vectors keyed by text, or a default vector.
// Safe for the concurrent calls the upload pipeline makes.
type mockEmbedder struct {
	vectors map[string][]float32
	def     []float32
	err     error

	mu           sync.Mutex
	lastTaskType string
	calls        int
}

func (m *mockEmbedder) Embed(ctx context.Context, text, taskType string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.lastTaskType = taskType
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if vec, ok := m.vectors[text]; ok {
		return vec, nil
	}
	if m.def != nil {
		return m.def, nil
	}
	return []float32{1, 0}, nil
}

// mockGenerator returns a canned response and records the prompt it saw.
type mockGenerator struct {
	response string
	err      error

	lastPrompt string
	calls      int
}

func (m *mockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

var errBackendDown = errors.New("backend unavailable")
