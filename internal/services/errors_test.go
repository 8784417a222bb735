package services_test

import (
	"errors"
	"strings"
	"testing"

	"scribe/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection reset")
	err := services.Wrap(services.ErrExternalTool, "subtitles", "fetch track", "upstream refused", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
	for _, fragment := range []string{"subtitles", "fetch track", "upstream refused"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %q", fragment, err.Error())
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "media", "extract audio", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestIsInputError(t *testing.T) {
	if !services.IsInputError(services.Wrap(services.ErrValidation, "jobs", "validate", "bad format", nil)) {
		t.Fatal("validation errors should classify as input errors")
	}
	if services.IsInputError(services.Wrap(services.ErrExternalTool, "media", "metadata", "", errors.New("boom"))) {
		t.Fatal("external tool errors should not classify as input errors")
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 600)
	got := services.Truncate(long, 500)
	if len(got) != 500 {
		t.Fatalf("expected truncated length 500, got %d", len(got))
	}
	if !strings.HasSuffix(got, "... (truncated)") {
		t.Fatalf("expected truncation marker, got %q", got[480:])
	}
	if services.Truncate("short", 500) != "short" {
		t.Fatal("short strings must pass through unchanged")
	}
}
