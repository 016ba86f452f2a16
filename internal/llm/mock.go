package llm

import (
	"context"
	"sync"

	"taste-test/internal/domain"
)

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Response string
	Err      error

	// OnCall se ejecuta dentro de Recommend, antes de devolver la respuesta.
	OnCall func(entries []domain.ChatEntry, extra string)

	mu    sync.Mutex
	calls []MockCall
}

type MockCall struct {
	Entries []domain.ChatEntry
	Extra   string
}

func (m *MockClient) Recommend(ctx context.Context, entries []domain.ChatEntry, extra string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Entries: append([]domain.ChatEntry(nil), entries...), Extra: extra})
	m.mu.Unlock()
	if m.OnCall != nil {
		m.OnCall(entries, extra)
	}
	return m.Response, m.Err
}

// Calls devuelve una copia de las llamadas recibidas.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}
