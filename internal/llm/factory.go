package llm

import "fmt"

// NewProvider creates a provider from configuration. An empty provider
// name means hints are disabled and is the caller's to handle.
func NewProvider(config Config) (Provider, error) {
	switch config.Provider {
	case "openai":
		return NewOpenAIProvider(config)
	case "ollama":
		// Ollama exposes an OpenAI-compatible endpoint and needs no key.
		cfg := config
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:11434/v1"
		}
		if cfg.APIKey == "" {
			cfg.APIKey = "ollama"
		}
		p, err := NewOpenAIProvider(cfg)
		if err != nil {
			return nil, err
		}
		p.name = "ollama"
		return p, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", config.Provider)
	}
}
