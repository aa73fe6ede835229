package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
)

func TestWrap(t *testing.T) {
	t.Run("matches_sentinel", func(t *testing.T) {
		err := fmt.Errorf("commit: %w", Wrap(ErrConcurrencyConflict, stderrors.New("0 rows")))
		if !stderrors.Is(err, ErrConcurrencyConflict) {
			t.Error("expected wrapped error to match its sentinel")
		}
		if stderrors.Is(err, ErrAuditPersistence) {
			t.Error("expected no match against a different sentinel")
		}
	})

	t.Run("keeps_cause", func(t *testing.T) {
		err := Wrap(ErrCancelled, context.Canceled)
		if !stderrors.Is(err, context.Canceled) {
			t.Error("expected cause to be reachable")
		}
		if err.StatusCode != 499 {
			t.Errorf("expected status 499, got %d", err.StatusCode)
		}
	})
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("x: %w", ErrNotSupported)); got != "NOT_SUPPORTED" {
		t.Errorf("expected NOT_SUPPORTED, got %q", got)
	}
	if got := CodeOf(stderrors.New("plain")); got != "" {
		t.Errorf("expected empty code, got %q", got)
	}
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrInvalidInput, "email is required")
	if err.Code != "INVALID_INPUT" || err.Message != "email is required" {
		t.Errorf("unexpected error %+v", err)
	}
	if ErrInvalidInput.Message != "Invalid input" {
		t.Error("sentinel message was mutated")
	}
}
