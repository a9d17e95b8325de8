package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrHTTPStatusCapturesBody(t *testing.T) {
	err := ErrHTTPStatus(500, `{"error":"detector crashed"}`)
	if err.ResponseBody() != `{"error":"detector crashed"}` {
		t.Errorf("ResponseBody() = %q", err.ResponseBody())
	}
	if !err.Retryable {
		t.Error("5xx should be retryable")
	}

	err = ErrHTTPStatus(422, "bad csv")
	if !err.Retryable {
		t.Error("required-success failures retry regardless of status class")
	}
}

func TestIsCanceled(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"domain canceled", ErrCanceled("user aborted"), true},
		{"wrapped context canceled", fmt.Errorf("request: %w", context.Canceled), true},
		{"wrapped domain canceled", fmt.Errorf("submit: %w", ErrCanceled("stop")), true},
		{"network error", ErrNetwork("connection refused"), false},
		{"nil-ish plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCanceled(tt.err); got != tt.want {
				t.Errorf("IsCanceled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategoryMatching(t *testing.T) {
	err := fmt.Errorf("outer: %w", ErrMalformed("payload is not an object"))
	if !IsCategory(err, ErrCatMalformed) {
		t.Error("expected malformed category through wrapping")
	}
	if IsCategory(err, ErrCatNetwork) {
		t.Error("did not expect network category")
	}
	if GetCategory(errors.New("plain")) != ErrCatInternal {
		t.Error("plain errors default to internal category")
	}
}

func TestDomainErrorIs(t *testing.T) {
	a := ErrNetwork("dial tcp: refused")
	b := ErrNetwork("another message")
	if !errors.Is(a, b) {
		t.Error("same category+code should match via errors.Is")
	}
	if errors.Is(a, ErrTimeout("t")) {
		t.Error("different category should not match")
	}
}

func TestRetryableClassification(t *testing.T) {
	if !IsRetryable(ErrNetwork("refused")) {
		t.Error("network errors are retryable")
	}
	if !IsRetryable(ErrTimeout("deadline")) {
		t.Error("timeouts are retryable")
	}
	if IsRetryable(ErrCanceled("stop")) {
		t.Error("cancellation is not retryable")
	}
	if IsRetryable(ErrMalformed("junk")) {
		t.Error("malformed payloads are not retryable")
	}
}
