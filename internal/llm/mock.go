package llm

import (
	"context"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Text string
	Err  error
}

// MockProvider returns canned responses in FIFO order and records prompts.
// With an empty queue it serves a fixed sample question so the bot can run
// without credentials.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Prompts   []string
}

// SampleText is what an unscripted MockProvider returns.
const SampleText = `प्रश्न: भारत की राजधानी क्या है?
A. मुंबई
B. नई दिल्ली
C. कोलकाता
D. चेन्नई
उत्तर: B
• नई दिल्ली 1931 से भारत की राजधानी है।`

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, req.Prompt)
	if len(m.responses) == 0 {
		return &Response{Text: SampleText, Model: "mock"}, nil
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	if next.Text == "" {
		return nil, &ErrEmptyResponse{Provider: ProviderMock}
	}
	return &Response{Text: next.Text, Model: "mock"}, nil
}

func (m *MockProvider) ModelID() string { return "mock" }

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
