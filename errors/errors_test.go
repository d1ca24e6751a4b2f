package errors

import (
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := New(ErrCodeTimeout, "stage took too long")
	want := "TIMEOUT: stage took too long"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}

	cause := fmt.Errorf("deadline exceeded")
	err = err.WithCause(cause)
	if err.Unwrap() != cause {
		t.Fatal("expected cause to unwrap")
	}
}

func TestAppError_Retryable(t *testing.T) {
	if !New(ErrCodeResourceUnavailable, "model server down").Retryable {
		t.Fatal("resource unavailable should be retryable")
	}
	if New(ErrCodeInputRejected, "not an image").Retryable {
		t.Fatal("input rejected should not be retryable")
	}
}

func TestCodeOf(t *testing.T) {
	err := Newf(ErrCodeUnknownCapability, "capability %q not registered", "warp")
	if CodeOf(err) != ErrCodeUnknownCapability {
		t.Fatalf("unexpected code: %s", CodeOf(err))
	}

	wrapped := fmt.Errorf("building pipeline: %w", err)
	if CodeOf(wrapped) != ErrCodeUnknownCapability {
		t.Fatalf("code lost through wrapping: %s", CodeOf(wrapped))
	}

	if CodeOf(fmt.Errorf("plain")) != ErrCodeInternalFailure {
		t.Fatal("plain errors should map to internal failure")
	}
}

func TestIsCode(t *testing.T) {
	err := New(ErrCodeCancelled, "pipeline cancelled")
	if !IsCode(err, ErrCodeCancelled) {
		t.Fatal("expected cancelled code")
	}
	if IsCode(nil, ErrCodeCancelled) {
		t.Fatal("nil error should not match any code")
	}
}
