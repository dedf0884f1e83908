package gcp

import (
	"errors"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("DOCUMATE_TEST_KEY", "value")
	if got := GetEnv("DOCUMATE_TEST_KEY", "fallback"); got != "value" {
		t.Errorf("expected env value, got %q", got)
	}
	if got := GetEnv("DOCUMATE_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestIsPreconditionFailed(t *testing.T) {
	// The DoesNotExist write condition surfaces as HTTP 412; only that code
	// means the archive object is already in place.
	if !isPreconditionFailed(&googleapi.Error{Code: 412}) {
		t.Error("412 must be treated as an already-existing object")
	}
	if isPreconditionFailed(&googleapi.Error{Code: 403}) {
		t.Error("non-412 API errors must fail the write")
	}
	if isPreconditionFailed(errors.New("connection reset")) {
		t.Error("transport errors must fail the write")
	}
	if isPreconditionFailed(nil) {
		t.Error("nil is not a precondition failure")
	}
}
