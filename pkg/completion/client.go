// Package completion wraps a hosted LLM behind a single stateless call:
// system prompt plus conversation in, reply text out.
package completion

import (
	"context"
	"time"

	"github.com/tinyland-inc/ethicall/pkg/logger"
	"github.com/tinyland-inc/ethicall/pkg/providers/protocoltypes"
)

// Provider is the slice of providers.LLMProvider the client needs.
type Provider interface {
	Chat(ctx context.Context, messages []Message, model string, options map[string]any) (*protocoltypes.LLMResponse, error)
}

type Client struct {
	provider     Provider
	model        string
	systemPrompt string
	options      map[string]any
}

type ClientOption func(*Client)

// WithDefaultSystemPrompt replaces DefaultSystemPrompt for every call made
// through the client.
func WithDefaultSystemPrompt(prompt string) ClientOption {
	return func(c *Client) {
		if prompt != "" {
			c.systemPrompt = prompt
		}
	}
}

// WithChatOptions sets provider options such as max_tokens and temperature.
func WithChatOptions(options map[string]any) ClientOption {
	return func(c *Client) { c.options = options }
}

func NewClient(provider Provider, model string, opts ...ClientOption) *Client {
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		provider:     provider,
		model:        model,
		systemPrompt: DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Model() string {
	return c.model
}

type callConfig struct {
	systemPrompt string
}

// Option adjusts a single Complete call.
type Option func(*callConfig)

func WithSystemPrompt(prompt string) Option {
	return func(cc *callConfig) { cc.systemPrompt = prompt }
}

// Complete sends the system prompt followed by conversation, unmodified and
// in order, and returns the reply text verbatim.
//
// An invalid conversation returns *InvalidConversationError without calling
// the provider. Any provider failure, including an empty response, returns
// *CompletionError.
func (c *Client) Complete(ctx context.Context, conversation []Message, opts ...Option) (string, error) {
	if err := validate(conversation); err != nil {
		return "", err
	}

	cc := callConfig{systemPrompt: c.systemPrompt}
	for _, opt := range opts {
		opt(&cc)
	}

	messages := make([]Message, 0, len(conversation)+1)
	messages = append(messages, Message{Role: protocoltypes.RoleSystem, Content: cc.systemPrompt})
	messages = append(messages, conversation...)

	start := time.Now()
	resp, err := c.provider.Chat(ctx, messages, c.model, c.options)
	if err != nil {
		return "", &CompletionError{Err: err}
	}
	if resp == nil {
		return "", &CompletionError{Err: errEmptyResponse}
	}

	fields := map[string]any{
		"model":       c.model,
		"messages":    len(messages),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if resp.Usage != nil {
		fields["total_tokens"] = resp.Usage.TotalTokens
	}
	logger.DebugCF("completion", "Completion received", fields)

	return resp.Content, nil
}
