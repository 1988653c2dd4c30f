package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI-compatible
// chat endpoints (OpenAI itself, or Ollama through a BaseURL override).
type OpenAIProvider struct {
	client *openai.Client
	name   string
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		name:   "openai",
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	// Lightweight API call; surfaces key problems early.
	_, err := p.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "LLM API check failed: %v\n", err)
		return false
	}
	return true
}

// Suggest generates curation hints using the Chat Completions API
func (p *OpenAIProvider) Suggest(ctx context.Context, req SuggestRequest) (*SuggestResponse, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req)
	}

	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1000
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a data curation assistant for humanitarian 3W datasets. For each unresolved item, either pick ONE of the listed candidates or answer NONE. Never invent codes that are not listed.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.1, // Near-deterministic; this is matching, not prose
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from provider")
	}

	return &SuggestResponse{
		HintsMD:    strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:      resp.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// BuildPrompt renders the puzzles as a numbered markdown list.
func BuildPrompt(req SuggestRequest) string {
	var b strings.Builder
	b.WriteString("Propose matches for the following unresolved 3W entries.\n")
	b.WriteString("Answer as a markdown list, one line per item, `item -> candidate` or `item -> NONE`.\n\n")
	if len(req.Locations) > 0 {
		b.WriteString("Unresolved locations:\n")
		for i, loc := range req.Locations {
			fmt.Fprintf(&b, "%d. %q (country %s, admin level %d)", i+1, loc.Raw, loc.Country, loc.Level)
			if len(loc.Candidates) > 0 {
				fmt.Fprintf(&b, " candidates: %s", strings.Join(loc.Candidates, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if len(req.Sectors) > 0 {
		b.WriteString("Unmapped sector strings:\n")
		for i, s := range req.Sectors {
			fmt.Fprintf(&b, "%d. %q\n", i+1, s)
		}
	}
	return b.String()
}
