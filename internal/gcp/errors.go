package gcp

// EmbeddingError reports that the embedding backend was unreachable or
// returned a malformed payload. It propagates to the caller: uploads abort,
// the direct-answer path degrades to an empty-context response.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return "embedding: " + e.Err.Error() }

func (e *EmbeddingError) Unwrap() error { return e.Err }

// GenerationError reports a text-generation backend failure, including the
// empty-response case where Err is nil. It is never surfaced raw to an end
// user; callers map it to a fixed fallback string at the point of use.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return "generation: " + e.Reason
	}
	return "generation: " + e.Reason + ": " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }
