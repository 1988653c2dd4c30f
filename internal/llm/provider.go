// Package llm proposes canonical matches for unresolved locations and
// unmapped sectors, for human curation. Hints are advisory output only:
// nothing produced here ever feeds back into resolution or aggregation.
package llm

import (
	"context"

	"github.com/threewkit/threew/internal/model"
)

// Provider defines the interface for hint providers.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Suggest proposes candidate matches for the puzzles in the request
	Suggest(ctx context.Context, req SuggestRequest) (*SuggestResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// LocationPuzzle is one unresolved location handed to the provider,
// together with the candidates deterministic matching already found.
type LocationPuzzle struct {
	Country    string
	Raw        string
	Level      int
	Candidates []string // Admin codes recorded at resolution time
}

// SuggestRequest contains the input for hint generation.
type SuggestRequest struct {
	// Locations are the unresolved location puzzles, capped by config.
	Locations []LocationPuzzle

	// Sectors are raw sector strings that failed to map.
	Sectors []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SuggestResponse contains the provider's hint output.
type SuggestResponse struct {
	// HintsMD is the markdown hint list for the curation file
	HintsMD string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds provider configuration.
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI-compatible endpoints
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// MaxHints caps how many puzzles are sent per run
	MaxHints int

	// RequestsPerSecond throttles API calls
	RequestsPerSecond float64
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:          "", // Disabled by default
		Timeout:           30,
		MaxTokens:         1000,
		MaxHints:          50,
		RequestsPerSecond: 1,
	}
}

// ConfigFromModel converts the run configuration's LLM section.
func ConfigFromModel(cfg model.LLMConfig) Config {
	out := DefaultConfig()
	out.Provider = cfg.Provider
	out.Model = cfg.Model
	out.APIKey = cfg.APIKey
	out.BaseURL = cfg.BaseURL
	if cfg.TimeoutSecs > 0 {
		out.Timeout = cfg.TimeoutSecs
	}
	if cfg.MaxTokens > 0 {
		out.MaxTokens = cfg.MaxTokens
	}
	if cfg.MaxHints > 0 {
		out.MaxHints = cfg.MaxHints
	}
	if cfg.RequestsPerSecond > 0 {
		out.RequestsPerSecond = cfg.RequestsPerSecond
	}
	return out
}
