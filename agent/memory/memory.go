// Package memory holds bounded per-thread conversation history.
package memory

import (
	"context"
	"sync"

	"github.com/egware/erpagent/agent"
)

const (
	// MaxEntries is the hard cap on stored messages per thread.
	MaxEntries = 20
	// ContextWindow is how many trailing messages are replayed to the model.
	ContextWindow = 10
)

// Store is the conversation persistence contract.
type Store interface {
	Append(ctx context.Context, threadID string, msgs ...agent.Message) error
	History(ctx context.Context, threadID string) ([]agent.Message, error)
	Clear(ctx context.Context, threadID string) error
}

// Window returns the trailing ContextWindow messages of a history.
func Window(history []agent.Message) []agent.Message {
	if len(history) <= ContextWindow {
		return history
	}
	return history[len(history)-ContextWindow:]
}

// InMemoryStore keeps threads in process memory. Suitable for single
// instance deployments and tests.
type InMemoryStore struct {
	mu      sync.Mutex
	threads map[string][]agent.Message
}

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{threads: map[string][]agent.Message{}}
}

func (s *InMemoryStore) Append(ctx context.Context, threadID string, msgs ...agent.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.threads[threadID], msgs...)
	if len(history) > MaxEntries {
		history = history[len(history)-MaxEntries:]
	}
	s.threads[threadID] = history
	return nil
}

func (s *InMemoryStore) History(ctx context.Context, threadID string) ([]agent.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.threads[threadID]
	out := make([]agent.Message, len(history))
	copy(out, history)
	return out, nil
}

func (s *InMemoryStore) Clear(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, threadID)
	return nil
}
