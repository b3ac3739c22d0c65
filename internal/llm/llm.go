// Package llm defines the request contract between the retry core and
// the model providers, and decodes provider output into destination
// lines plus discovered glossary terms.
package llm

import (
	"context"
	"sync"
)

// Message is one prompt message in a request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reply is the provider's answer to one request. Skip marks a
// transport-level failure: the attempt is abandoned without local
// mutation and the retry loop moves on.
type Reply struct {
	Skip         bool
	Reasoning    string
	Result       string
	InputTokens  int
	OutputTokens int
}

// Params are the sampling parameters for one attempt. Attempts receive
// their own copy so a low-temperature retry never leaks into other
// batches sharing the platform configuration.
type Params struct {
	Model           string
	Temperature     float64
	TopP            float64
	MaxOutputTokens int
}

// Clone returns an independent copy.
func (p Params) Clone() Params { return p }

// Requester sends prompt messages to a model provider.
type Requester interface {
	Send(ctx context.Context, messages []Message, params Params) (Reply, error)
}

// MockRequester for testing.
type MockRequester struct {
	Replies []Reply
	Err     error

	mu         sync.Mutex
	Calls      int
	LastParams Params
	LastMsgs   []Message
}

func (m *MockRequester) Send(_ context.Context, messages []Message, params Params) (Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastMsgs = messages
	m.LastParams = params
	idx := m.Calls
	m.Calls++
	if m.Err != nil {
		return Reply{Skip: true}, m.Err
	}
	if idx >= len(m.Replies) {
		idx = len(m.Replies) - 1
	}
	if idx < 0 {
		return Reply{Skip: true}, nil
	}
	return m.Replies[idx], nil
}
