package dialogue

import (
	"context"
	"fmt"

	"storyduet/internal/llm"
)

// MockChatter is a deterministic Chatter implementation for testing. Replies
// are scripted per operation name, so a test controls the narrator, critic
// and generator independently.
type MockChatter struct {
	// Responses maps a request operation to its fixed reply.
	Responses map[string]string

	// Err, if set, is returned for every request instead of a reply.
	Err error

	// Requests records every request received, in order.
	Requests []llm.ChatRequest
}

// NewMockChatter creates a mock with the given per-operation replies.
func NewMockChatter(responses map[string]string) *MockChatter {
	return &MockChatter{Responses: responses}
}

// NewMockChatterWithError creates a mock that always fails.
func NewMockChatterWithError(err error) *MockChatter {
	return &MockChatter{Err: err}
}

// Chat returns the scripted reply for the request's operation. An operation
// without a script is an error, so tests notice unexpected calls.
func (m *MockChatter) Chat(_ context.Context, req llm.ChatRequest) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return "", m.Err
	}
	if reply, ok := m.Responses[req.Operation]; ok {
		return reply, nil
	}
	return "", fmt.Errorf("no scripted reply for operation %q", req.Operation)
}

// Calls reports how many requests carried the given operation.
func (m *MockChatter) Calls(operation string) int {
	n := 0
	for _, req := range m.Requests {
		if req.Operation == operation {
			n++
		}
	}
	return n
}
