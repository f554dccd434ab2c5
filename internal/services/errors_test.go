package services_test

import (
	"errors"
	"strings"
	"testing"

	"clipmatch/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "clips", "decode", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"clips", "decode", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "cache", "load", "manifest unreadable", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestFatalClassification(t *testing.T) {
	cases := []struct {
		marker error
		fatal  bool
	}{
		{services.ErrConfiguration, true},
		{services.ErrValidation, true},
		{services.ErrNotFound, true},
		{services.ErrExternalTool, false},
		{services.ErrTransient, false},
	}
	for _, tc := range cases {
		err := services.Wrap(tc.marker, "dataset", "iterate", "", nil)
		if got := services.Fatal(err); got != tc.fatal {
			t.Fatalf("Fatal(%v) = %v, want %v", tc.marker, got, tc.fatal)
		}
	}
}
