// Package ocr extrae el texto de las fotos de menus.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"taste-test/internal/domain"
)

// Recognizer convierte una imagen en texto plano. Puede devolver texto vacio.
type Recognizer interface {
	Recognize(ctx context.Context, img domain.Image) (string, error)
}

var ErrEmptyImage = errors.New("ocr empty image")

// Tesseract ejecuta el binario tesseract leyendo la imagen desde stdin.
type Tesseract struct {
	command  string
	language string
}

func NewTesseract(command, language string) *Tesseract {
	if command == "" {
		command = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	return &Tesseract{command: command, language: language}
}

func (t *Tesseract) Recognize(ctx context.Context, img domain.Image) (string, error) {
	if len(img.Data) == 0 {
		return "", ErrEmptyImage
	}

	cmd := exec.CommandContext(ctx, t.command, "stdin", "stdout", "-l", t.language)
	cmd.Stdin = bytes.NewReader(img.Data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run %s: %w: %s", t.command, err, strings.TrimSpace(stderr.String()))
	}
	return Clean(stdout.String()), nil
}

// Clean une las lineas reconocidas descartando las vacias y el ruido de espacios.
func Clean(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
