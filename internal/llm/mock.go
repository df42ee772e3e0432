package llm

import (
	"context"
	"sync"
)

// MockClient permite tests sin llamar a un LLM real. Devuelve Responses en
// orden (la ultima se repite), con errores por llamada via Errs, y registra
// cada contexto recibido en Calls.
type MockClient struct {
	mu        sync.Mutex
	Responses []string
	Errs      []error
	Err       error
	Calls     [][]Message
}

func (m *MockClient) Complete(_ context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, messages)
	idx := len(m.Calls) - 1
	if idx < len(m.Errs) && m.Errs[idx] != nil {
		return "", m.Errs[idx]
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	return m.Responses[idx], nil
}
