package ocr

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"taste-test/internal/domain"
)

func TestClean(t *testing.T) {
	raw := "  RAMEN   HOUSE \n\n\nTonkotsu   $14\r\n \f\nGyoza $7\n"
	want := "RAMEN HOUSE\nTonkotsu $14\nGyoza $7"
	if got := Clean(raw); got != want {
		t.Fatalf("Clean() = %q, want %q", got, want)
	}
	if got := Clean(" \n\t\n"); got != "" {
		t.Fatalf("expected blank output to clean to empty, got %q", got)
	}
}

func TestTesseract_EmptyImage(t *testing.T) {
	rec := NewTesseract("", "")
	_, err := rec.Recognize(context.Background(), domain.Image{})
	if !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
}

func TestTesseract_MissingBinary(t *testing.T) {
	rec := NewTesseract("tesseract-binary-that-does-not-exist", "eng")
	if _, err := rec.Recognize(context.Background(), domain.Image{Data: []byte{0x89, 'P', 'N', 'G'}}); err == nil {
		t.Fatalf("expected error for missing binary")
	}
}

func TestTesseract_ReadsStdout(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	script := filepath.Join(t.TempDir(), "fake-tesseract")
	body := "#!/bin/sh\ncat > /dev/null\nprintf 'MENU\\n\\n  Ramen   12\\n'\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	rec := NewTesseract(script, "eng")
	text, err := rec.Recognize(context.Background(), domain.Image{Data: []byte("png")})
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if text != "MENU\nRamen 12" {
		t.Fatalf("unexpected text %q", text)
	}
}
