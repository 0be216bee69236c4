package llm

import (
	"context"
	"sync"
)

// FakeClient returns a deterministic narrative for offline runs and tests.
// It records every call so tests can assert how often (and whether) the
// network boundary was crossed.
type FakeClient struct {
	mu         sync.Mutex
	calls      int
	lastSystem string
	lastUser   string

	Text string
	Err  error
}

func NewFakeClient() *FakeClient {
	return &FakeClient{Text: "## Summary\nTime in range looks stable.\n\n## Recommendations\nReview overnight basal."}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastPrompt returns the system and user messages of the most recent call.
func (f *FakeClient) LastPrompt() (system, user string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSystem, f.lastUser
}

func (f *FakeClient) GenerateText(ctx context.Context, system, user string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastSystem = system
	f.lastUser = user
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}
