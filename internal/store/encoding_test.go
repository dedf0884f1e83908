package store

import "testing"

func TestVectorRoundTrip(t *testing.T) {
	vec := []float32{0.5, -1.25, 0, 3.14159, 1e-7}
	decoded, err := DecodeVector(EncodeVector(vec))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded) != len(vec) {
		t.Fatalf("expected %d values, got %d", len(vec), len(decoded))
	}
	for i := range vec {
		if decoded[i] != vec[i] {
			t.Errorf("value %d: got %v, want %v", i, decoded[i], vec[i])
		}
	}
}

func TestVectorEmpty(t *testing.T) {
	if b := EncodeVector(nil); b != nil {
		t.Errorf("expected nil blob for empty vector, got %v", b)
	}
	vec, err := DecodeVector(nil)
	if err != nil || vec != nil {
		t.Errorf("expected nil vector for empty blob, got %v, %v", vec, err)
	}
}

func TestDecodeVectorRejectsBadLength(t *testing.T) {
	if _, err := DecodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for blob length not a multiple of 4")
	}
}
