// Package openaicompat talks to any OpenAI-compatible chat completions
// endpoint. Groq is the default deployment target.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/tinyland-inc/ethicall/pkg/providers/protocoltypes"
)

type (
	Message     = protocoltypes.Message
	LLMResponse = protocoltypes.LLMResponse
	UsageInfo   = protocoltypes.UsageInfo
)

var errNoChoices = errors.New("response contained no choices")

type Provider struct {
	client       *openai.Client
	baseURL      string
	defaultModel string
}

// NewProvider returns a provider for the endpoint at apiBase. SDK retries are
// disabled: every Chat call is exactly one HTTP request.
func NewProvider(apiKey, apiBase, defaultModel string) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	base := strings.TrimSpace(apiBase)
	if base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	client := openai.NewClient(opts...)
	return &Provider{
		client:       &client,
		baseURL:      base,
		defaultModel: defaultModel,
	}
}

func (p *Provider) Chat(
	ctx context.Context,
	messages []Message,
	model string,
	options map[string]any,
) (*LLMResponse, error) {
	params, err := buildParams(messages, model, options)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completions API call: %w", err)
	}

	return parseResponse(resp)
}

func (p *Provider) GetDefaultModel() string {
	return p.defaultModel
}

func (p *Provider) BaseURL() string {
	return p.baseURL
}

func buildParams(messages []Message, model string, options map[string]any) (openai.ChatCompletionNewParams, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case protocoltypes.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case protocoltypes.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case protocoltypes.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			return openai.ChatCompletionNewParams{}, fmt.Errorf("message %d: unsupported role %q", i, msg.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: out,
	}
	if mt, ok := options["max_tokens"].(int); ok && mt > 0 {
		params.MaxTokens = openai.Int(int64(mt))
	}
	if temp, ok := options["temperature"].(float64); ok {
		params.Temperature = openai.Float(temp)
	}
	return params, nil
}

func parseResponse(resp *openai.ChatCompletion) (*LLMResponse, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errNoChoices
	}
	choice := resp.Choices[0]
	return &LLMResponse{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage: &UsageInfo{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}
