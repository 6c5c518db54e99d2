package providers

import (
	"fmt"

	"github.com/tinyland-inc/ethicall/pkg/config"
	anthropicprovider "github.com/tinyland-inc/ethicall/pkg/providers/anthropic"
	"github.com/tinyland-inc/ethicall/pkg/providers/openaicompat"
)

// CreateProvider builds the provider selected in cfg and returns it with the
// model id to request. The configured model wins over the provider default.
func CreateProvider(cfg *config.Config) (LLMProvider, string, error) {
	if err := cfg.ValidateLLM(); err != nil {
		return nil, "", err
	}

	var provider LLMProvider
	switch cfg.LLM.Provider {
	case config.ProviderGroq:
		provider = openaicompat.NewProvider(cfg.GetAPIKey(), cfg.GetAPIBase(), "llama3-8b-8192")
	case config.ProviderOpenAI:
		provider = openaicompat.NewProvider(cfg.GetAPIKey(), cfg.GetAPIBase(), "gpt-4o-mini")
	case config.ProviderAnthropic:
		provider = anthropicprovider.NewProviderWithBaseURL(cfg.GetAPIKey(), cfg.GetAPIBase())
	default:
		return nil, "", fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}

	model := cfg.LLM.Model
	if model == "" {
		model = provider.GetDefaultModel()
	}
	return provider, model, nil
}

// ChatOptions converts the configured generation settings into the options
// map understood by every provider.
func ChatOptions(cfg *config.Config) map[string]any {
	options := map[string]any{}
	if cfg.LLM.MaxTokens > 0 {
		options["max_tokens"] = cfg.LLM.MaxTokens
	}
	if cfg.LLM.Temperature != nil {
		options["temperature"] = *cfg.LLM.Temperature
	}
	return options
}
