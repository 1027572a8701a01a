package soci

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := newError(ErrUsage, "bad call %d", 7)
	if err.Error() != "soci: usage: bad call 7" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	wrapped := wrapError(ErrExecute, fmt.Errorf("driver said no"), "running query")
	if wrapped.Error() != "soci: execute: running query: driver said no" {
		t.Errorf("unexpected message: %q", wrapped.Error())
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := wrapError(ErrFetch, cause, "fetching")
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
}

func TestErrorCategoryMatching(t *testing.T) {
	err := fmt.Errorf("outer: %w", newError(ErrBind, "no such parameter"))

	var socierr *Error
	if !errors.As(err, &socierr) {
		t.Fatal("errors.As failed")
	}
	if socierr.Category != ErrBind {
		t.Errorf("expected bind category, got %v", socierr.Category)
	}

	if !errors.Is(err, &Error{Category: ErrBind}) {
		t.Error("category-only Is match failed")
	}
	if errors.Is(err, &Error{Category: ErrFetch}) {
		t.Error("mismatched category matched")
	}
}

func TestCategoryOf(t *testing.T) {
	if cat, ok := CategoryOf(newError(ErrConversion, "x")); !ok || cat != ErrConversion {
		t.Errorf("CategoryOf failed: %v %v", cat, ok)
	}
	if _, ok := CategoryOf(errors.New("plain")); ok {
		t.Error("CategoryOf matched a foreign error")
	}
}

func TestErrorCategoryNames(t *testing.T) {
	names := map[ErrorCategory]string{
		ErrConnection: "connection",
		ErrPrepare:    "prepare",
		ErrBind:       "bind",
		ErrExecute:    "execute",
		ErrFetch:      "fetch",
		ErrType:       "type",
		ErrConversion: "conversion",
		ErrUsage:      "usage",
	}
	for cat, want := range names {
		if cat.String() != want {
			t.Errorf("category %d: expected %q, got %q", cat, want, cat.String())
		}
	}
}
