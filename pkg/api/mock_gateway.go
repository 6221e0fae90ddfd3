package api

import (
	"context"
	"net/http"
	"sync"
)

// Call is one request MockGateway received.
type Call struct {
	Method string
	Path   string
	Params Params
	Body   any
}

// MockGateway implements Gateway for testing. Responses are keyed by method and
// path; unknown keys answer with the default response (nil unless set).
type MockGateway struct {
	mu              sync.Mutex
	calls           []Call
	responses       map[string]map[string]any
	defaultResponse map[string]any
	err             error
}

func NewMockGateway() *MockGateway {
	return &MockGateway{responses: make(map[string]map[string]any)}
}

func (m *MockGateway) SetResponse(method, path string, body map[string]any) *MockGateway {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[method+" "+path] = body
	return m
}

func (m *MockGateway) SetDefaultResponse(body map[string]any) *MockGateway {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResponse = body
	return m
}

// Err makes every following call fail with err.
func (m *MockGateway) Err(err error) *MockGateway {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

func (m *MockGateway) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallsFor returns the calls made with method.
func (m *MockGateway) CallsFor(method string) []Call {
	var calls []Call
	for _, c := range m.Calls() {
		if c.Method == method {
			calls = append(calls, c)
		}
	}
	return calls
}

func (m *MockGateway) LastCall() (Call, bool) {
	calls := m.Calls()
	if len(calls) == 0 {
		return Call{}, false
	}
	return calls[len(calls)-1], true
}

func (m *MockGateway) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *MockGateway) Get(_ context.Context, path string, params Params) (map[string]any, error) {
	return m.record(Call{Method: http.MethodGet, Path: path, Params: params})
}

func (m *MockGateway) Post(_ context.Context, path string, body any) (map[string]any, error) {
	return m.record(Call{Method: http.MethodPost, Path: path, Body: body})
}

func (m *MockGateway) Update(_ context.Context, path string, body any) (map[string]any, error) {
	return m.record(Call{Method: http.MethodPut, Path: path, Body: body})
}

func (m *MockGateway) Delete(_ context.Context, path string) error {
	_, err := m.record(Call{Method: http.MethodDelete, Path: path})
	return err
}

func (m *MockGateway) record(c Call) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, c)
	if m.err != nil {
		return nil, m.err
	}

	if resp, ok := m.responses[c.Method+" "+c.Path]; ok {
		return resp, nil
	}

	return m.defaultResponse, nil
}
