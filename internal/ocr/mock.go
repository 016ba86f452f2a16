package ocr

import (
	"context"

	"taste-test/internal/domain"
)

// MockRecognizer devuelve un texto fijo; util en tests.
type MockRecognizer struct {
	Text  string
	Err   error
	Calls int
}

func (m *MockRecognizer) Recognize(_ context.Context, _ domain.Image) (string, error) {
	m.Calls++
	return m.Text, m.Err
}
