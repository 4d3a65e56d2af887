package pdftext

import (
	"bytes"
	"testing"
)

func TestExtractRejectsNonPDF(t *testing.T) {
	data := []byte("this is not a pdf document at all")
	text, err := Extract(bytes.NewReader(data), int64(len(data)), DefaultMaxPages, DefaultMaxChars)
	if err == nil {
		t.Fatalf("expected error, got text %q", text)
	}
	if text != "" {
		t.Fatalf("text must be empty on error, got %q", text)
	}
}

func TestExtractEmptyInput(t *testing.T) {
	if _, err := Extract(bytes.NewReader(nil), 0, 0, 0); err == nil {
		t.Fatalf("expected error for empty input")
	}
}
