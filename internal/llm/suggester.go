package llm

import (
	"context"
	"fmt"

	"github.com/threewkit/threew/internal/model"
	"github.com/threewkit/threew/internal/worker"
)

// Suggester wraps a Provider with rate limiting and request shaping.
// It runs after aggregation is complete; a failing provider degrades to
// "no hints", never to a failed run.
type Suggester struct {
	provider Provider
	limiter  *worker.Limiter
	config   Config
}

// NewSuggester creates a suggester, or an error if the configured
// provider cannot be constructed.
func NewSuggester(config Config) (*Suggester, error) {
	if config.Provider == "" {
		return nil, fmt.Errorf("no LLM provider configured")
	}
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Suggester{
		provider: provider,
		limiter:  worker.NewLimiter(config.RequestsPerSecond, 1),
		config:   config,
	}, nil
}

// IsEnabled reports whether hint generation is active.
func (s *Suggester) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// GenerateHints asks the provider for curation hints on the report's
// unresolved locations and unmapped sectors. The returned hints are
// attached to the report as advisory output only.
func (s *Suggester) GenerateHints(ctx context.Context, report *model.Report) (*model.CurationHints, error) {
	req, truncated := s.buildRequest(report)
	if len(req.Locations) == 0 && len(req.Sectors) == 0 {
		return nil, nil // Nothing to curate
	}

	if err := s.limiter.Wait(ctx, s.provider.Name()); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	resp, err := s.provider.Suggest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}

	hints := &model.CurationHints{
		Enabled:  true,
		Provider: s.provider.Name(),
		Model:    resp.Model,
		HintsMD:  resp.HintsMD,
	}
	if truncated > 0 {
		hints.Warnings = append(hints.Warnings,
			fmt.Sprintf("%d unresolved locations over the hint cap were not sent", truncated))
	}
	return hints, nil
}

// buildRequest deduplicates puzzles and applies the hint cap, reporting
// how many distinct puzzles the cap cut off.
func (s *Suggester) buildRequest(report *model.Report) (SuggestRequest, int) {
	limit := s.config.MaxHints
	if limit <= 0 {
		limit = 50
	}

	var req SuggestRequest
	truncated := 0
	seen := map[string]bool{}
	for _, row := range report.Unresolved {
		key := row.Row.CountryISO3 + "|" + row.Row.Location
		if seen[key] {
			continue
		}
		seen[key] = true
		if len(req.Locations) >= limit {
			truncated++
			continue
		}
		req.Locations = append(req.Locations, LocationPuzzle{
			Country:    row.Row.CountryISO3,
			Raw:        row.Row.Location,
			Level:      row.Row.AdminLevel,
			Candidates: row.Resolution.Candidates,
		})
	}
	if len(report.UnmatchedSectors) <= limit {
		req.Sectors = report.UnmatchedSectors
	} else {
		req.Sectors = report.UnmatchedSectors[:limit]
	}
	req.Model = s.config.Model
	req.MaxTokens = s.config.MaxTokens
	return req, truncated
}
