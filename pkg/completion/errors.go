package completion

import (
	"errors"
	"fmt"
)

var errEmptyResponse = errors.New("provider returned an empty response")

// InvalidConversationError reports a conversation that is not an ordered
// sequence of role/content pairs.
type InvalidConversationError struct {
	Reason string
}

func (e *InvalidConversationError) Error() string {
	return "invalid conversation: " + e.Reason
}

func invalidf(format string, args ...any) error {
	return &InvalidConversationError{Reason: fmt.Sprintf(format, args...)}
}

// CompletionError wraps any failure of the provider call. Unwrap yields the
// original error.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string {
	return "error calling LLM: " + e.Err.Error()
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
