package slackbot

import (
	"context"
	"sync"

	"github.com/tinyland-inc/ethicall/pkg/bus"
	"github.com/tinyland-inc/ethicall/pkg/config"
)

// ThreadMessage is one message read back from a thread.
type ThreadMessage struct {
	User  string
	BotID string
	Text  string
	TS    string
}

// Platform is the part of the Slack Web API the handlers use.
type Platform interface {
	PostMessage(ctx context.Context, channel, threadTS, text string) error
	ThreadMessages(ctx context.Context, channel, threadTS string) ([]ThreadMessage, error)
	SetSuggestedPrompts(ctx context.Context, channel, threadTS, title string, prompts []config.SuggestedPrompt) error
	SetStatus(ctx context.Context, channel, threadTS, status string) error
}

// ContextStore keeps the latest context of each assistant thread.
type ContextStore interface {
	Save(ctx context.Context, channel, threadTS string, tc bus.ThreadContext) error
	Find(ctx context.Context, channel, threadTS string) (bus.ThreadContext, bool, error)
}

// MemoryContextStore is a process-local ContextStore. Contexts are lost on
// restart; Slack resends the context with the next thread event.
type MemoryContextStore struct {
	mu       sync.RWMutex
	contexts map[string]bus.ThreadContext
}

func NewMemoryContextStore() *MemoryContextStore {
	return &MemoryContextStore{contexts: make(map[string]bus.ThreadContext)}
}

func (s *MemoryContextStore) Save(_ context.Context, channel, threadTS string, tc bus.ThreadContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[channel+":"+threadTS] = tc
	return nil
}

func (s *MemoryContextStore) Find(_ context.Context, channel, threadTS string) (bus.ThreadContext, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tc, ok := s.contexts[channel+":"+threadTS]
	return tc, ok, nil
}
