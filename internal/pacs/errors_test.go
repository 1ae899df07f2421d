package pacs_test

import (
	"errors"
	"strings"
	"testing"

	"preloader/internal/pacs"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := pacs.Wrap(pacs.ErrRecognition, "recognize", "invoke", "engine failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, pacs.ErrRecognition) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"recognize", "invoke", "engine failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarker(t *testing.T) {
	err := pacs.Wrap(nil, "index", "load", "", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "index: load") {
		t.Fatalf("expected context in %q", err.Error())
	}
}
