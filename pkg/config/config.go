package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	ProviderGroq      = "groq"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var (
	// ErrMissingAPIKey is returned when the selected LLM provider has no key.
	ErrMissingAPIKey = errors.New("LLM provider API key is not set")
	// ErrMissingSlackToken is returned when no bot token is configured.
	ErrMissingSlackToken = errors.New("SLACK_BOT_TOKEN environment variable is not set")
	// ErrMissingSlackTransport is returned when neither socket mode nor the
	// Events API can be served.
	ErrMissingSlackTransport = errors.New("either SLACK_APP_TOKEN or SLACK_SIGNING_SECRET must be set")
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so allow_from can contain both "U123" and numeric ids.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	LLM       LLMConfig       `json:"llm"`
	Providers ProvidersConfig `json:"providers"`
	Slack     SlackConfig     `json:"slack"`
	Assistant AssistantConfig `json:"assistant"`
	Gateway   GatewayConfig   `json:"gateway"`
}

type LLMConfig struct {
	Provider     string   `env:"ETHICALL_LLM_PROVIDER"      json:"provider"`
	Model        string   `env:"ETHICALL_LLM_MODEL"         json:"model"`
	SystemPrompt string   `env:"ETHICALL_LLM_SYSTEM_PROMPT" json:"system_prompt,omitempty"`
	MaxTokens    int      `env:"ETHICALL_LLM_MAX_TOKENS"    json:"max_tokens"`
	Temperature  *float64 `env:"ETHICALL_LLM_TEMPERATURE"   json:"temperature,omitempty"`
}

type ProvidersConfig struct {
	Groq      GroqProviderConfig      `json:"groq"`
	OpenAI    OpenAIProviderConfig    `json:"openai"`
	Anthropic AnthropicProviderConfig `json:"anthropic"`
}

type GroqProviderConfig struct {
	APIKey  string `env:"GROQ_API_KEY"           json:"api_key"`
	APIBase string `env:"ETHICALL_GROQ_API_BASE" json:"api_base"`
}

type OpenAIProviderConfig struct {
	APIKey  string `env:"OPENAI_API_KEY"           json:"api_key"`
	APIBase string `env:"ETHICALL_OPENAI_API_BASE" json:"api_base"`
}

type AnthropicProviderConfig struct {
	APIKey  string `env:"ANTHROPIC_API_KEY"           json:"api_key"`
	APIBase string `env:"ETHICALL_ANTHROPIC_API_BASE" json:"api_base"`
}

type SlackConfig struct {
	BotToken      string              `env:"SLACK_BOT_TOKEN"           json:"bot_token"`
	AppToken      string              `env:"SLACK_APP_TOKEN"           json:"app_token"`
	SigningSecret string              `env:"SLACK_SIGNING_SECRET"      json:"signing_secret"`
	AllowFrom     FlexibleStringSlice `env:"ETHICALL_SLACK_ALLOW_FROM" json:"allow_from"`
	Debug         bool                `env:"ETHICALL_SLACK_DEBUG"      json:"debug"`
}

// SocketMode reports whether events should be received over Socket Mode
// rather than the HTTP Events API.
func (s SlackConfig) SocketMode() bool {
	return s.AppToken != ""
}

type SuggestedPrompt struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type AssistantConfig struct {
	Greeting         string            `env:"ETHICALL_ASSISTANT_GREETING"        json:"greeting"`
	PromptsTitle     string            `env:"ETHICALL_ASSISTANT_PROMPTS_TITLE"   json:"prompts_title"`
	SuggestedPrompts []SuggestedPrompt `                                         json:"suggested_prompts"` //nolint:tagalign // golines conflict
	ThinkingStatus   string            `env:"ETHICALL_ASSISTANT_THINKING_STATUS" json:"thinking_status"`
	ErrorReply       string            `env:"ETHICALL_ASSISTANT_ERROR_REPLY"     json:"error_reply"`
}

type GatewayConfig struct {
	Host       string `env:"ETHICALL_GATEWAY_HOST"        json:"host"`
	Port       int    `env:"ETHICALL_GATEWAY_PORT"        json:"port"`
	EventsPath string `env:"ETHICALL_GATEWAY_EVENTS_PATH" json:"events_path"`
}

func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  ProviderGroq,
			Model:     "llama3-8b-8192",
			MaxTokens: 1024,
		},
		Providers: ProvidersConfig{
			Groq: GroqProviderConfig{APIBase: "https://api.groq.com/openai/v1"},
		},
		Assistant: AssistantConfig{
			Greeting:     "Hi, how can I help you today?",
			PromptsTitle: "Try one of these",
			SuggestedPrompts: []SuggestedPrompt{
				{
					Title:   "Review a message",
					Message: "Can you check whether this message is compliant with our communication guidelines?",
				},
				{
					Title:   "Explain a policy",
					Message: "What should I keep in mind before sharing customer data in a channel?",
				},
				{
					Title:   "Rephrase professionally",
					Message: "Please rephrase my last message so it stays professional and respectful.",
				},
			},
			ThinkingStatus: "is thinking...",
			ErrorReply:     ":warning: Something went wrong while generating a reply. Please try again.",
		},
		Gateway: GatewayConfig{
			Host:       "0.0.0.0",
			Port:       3000,
			EventsPath: "/slack/events",
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional JSON file
// at path and the process environment, in that order of precedence.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var tmp Config
			if err := json.Unmarshal(data, &tmp); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
			// A user-provided prompt list replaces the defaults instead of
			// being merged into them element by element.
			if len(tmp.Assistant.SuggestedPrompts) > 0 {
				cfg.Assistant.SuggestedPrompts = nil
			}
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	return cfg, nil
}

// GetAPIKey returns the key of the selected LLM provider.
func (c *Config) GetAPIKey() string {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		return c.Providers.OpenAI.APIKey
	case ProviderAnthropic:
		return c.Providers.Anthropic.APIKey
	default:
		return c.Providers.Groq.APIKey
	}
}

// GetAPIBase returns the endpoint of the selected LLM provider; empty means
// the SDK default.
func (c *Config) GetAPIBase() string {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		return c.Providers.OpenAI.APIBase
	case ProviderAnthropic:
		return c.Providers.Anthropic.APIBase
	default:
		return c.Providers.Groq.APIBase
	}
}

func apiKeyEnv(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GROQ_API_KEY"
	}
}

// ValidateLLM checks what a completion needs: a known provider, a model and
// a non-empty key.
func (c *Config) ValidateLLM() error {
	switch c.LLM.Provider {
	case ProviderGroq, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown LLM provider %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return errors.New("LLM model is not set")
	}
	if c.GetAPIKey() == "" {
		return fmt.Errorf("%w: %s environment variable is not set", ErrMissingAPIKey, apiKeyEnv(c.LLM.Provider))
	}
	return nil
}

// Validate checks everything the gateway needs before serving events.
func (c *Config) Validate() error {
	if err := c.ValidateLLM(); err != nil {
		return err
	}
	if c.Slack.BotToken == "" {
		return ErrMissingSlackToken
	}
	if c.Slack.AppToken == "" && c.Slack.SigningSecret == "" {
		return ErrMissingSlackTransport
	}
	return nil
}
