// Package pipeline orchestrates a complete aggregation run: per-country
// resolution and normalization, claim deduplication, roll-ups, coverage
// indicators and output rendering.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/threewkit/threew/internal/admin"
	"github.com/threewkit/threew/internal/aggregate"
	"github.com/threewkit/threew/internal/llm"
	"github.com/threewkit/threew/internal/model"
	"github.com/threewkit/threew/internal/org"
	"github.com/threewkit/threew/internal/resolve"
	"github.com/threewkit/threew/internal/sector"
	"github.com/threewkit/threew/internal/worker"
)

// Pipeline wires the engine's stages over one immutable admin Index.
type Pipeline struct {
	config     *model.Config
	ix         *admin.Index
	resolver   *resolve.Resolver
	orgs       *org.Normalizer
	sectors    *sector.Mapper
	aggregator *aggregate.Aggregator
	renderer   *Renderer
	suggester  *llm.Suggester // Optional curation hints (nil if disabled)
}

// New creates a pipeline over an already-built Index.
func New(cfg *model.Config, ix *admin.Index) *Pipeline {
	var suggester *llm.Suggester
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSuggester(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize LLM provider: %v\n", err)
		} else {
			suggester = s
		}
	}

	return &Pipeline{
		config:     cfg,
		ix:         ix,
		resolver:   resolve.New(ix, cfg.Resolver),
		orgs:       org.New(cfg.Org),
		sectors:    sector.New(cfg.Sector),
		aggregator: aggregate.New(ix, cfg.Levels),
		renderer:   NewRenderer(cfg.Output.Verbose),
		suggester:  suggester,
	}
}

// Run processes all source rows into a complete report. Rows are grouped
// by country and resolved concurrently; the Index is read-only and the
// normalizer tables are immutable for the whole run, so the per-country
// claim sets merge by plain union.
func (p *Pipeline) Run(ctx context.Context, rows []model.SourceRow) (*model.Report, error) {
	byCountry := p.groupByCountry(rows)
	countries := make([]string, 0, len(byCountry))
	for c := range byCountry {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	pool := worker.NewPool(p.config.Concurrency.CountryWorkers, p.processCountry)
	pool.Start()
	for _, c := range countries {
		select {
		case <-ctx.Done():
			pool.Shutdown()
			return nil, ctx.Err()
		default:
		}
		pool.Submit(worker.CountryJob{Country: c, Rows: byCountry[c]})
	}
	results := pool.Wait()

	var resolved []model.ResolvedRow
	skipped := 0
	for _, r := range results {
		if r.Err != nil {
			return nil, fmt.Errorf("process %s: %w", r.Country, r.Err)
		}
		resolved = append(resolved, r.Resolved...)
		skipped += r.Skipped
	}

	res := p.aggregator.Aggregate(resolved)
	indicators := aggregate.Coverage(res, p.ix, p.config.Levels)

	report := &model.Report{
		RunID:             uuid.NewString(),
		GeneratedAt:       time.Now().UTC(),
		Countries:         countries,
		Totals:            totals(len(rows), skipped, resolved, res),
		Aggregates:        res.Records,
		Indicators:        indicators,
		Unresolved:        res.Unresolved,
		Rejected:          res.Rejected,
		UnmatchedSectors:  p.sectors.Unmatched(),
		UnmatchedOrgTypes: p.orgs.UnmatchedTypes(),
	}

	// Curation hints come last and never affect the numbers above.
	if p.suggester.IsEnabled() {
		hints, err := p.suggester.GenerateHints(ctx, report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: LLM hint generation failed: %v\n", err)
		} else if hints != nil {
			report.LLM = hints
		}
	}

	return report, nil
}

// processCountry resolves one country batch. Runs on pool workers; only
// reads shared state apart from the internally-synchronized trackers.
func (p *Pipeline) processCountry(ctx context.Context, job worker.CountryJob) worker.CountryResult {
	result := worker.CountryResult{Country: job.Country}
	for _, row := range job.Rows {
		select {
		case <-ctx.Done():
			result.Err = ctx.Err()
			return result
		default:
		}

		sectorCode, ok := p.sectors.Code(row.Sector)
		if !ok {
			result.Skipped++
			continue
		}
		orgRef := p.orgs.Normalize(row.OrgName, row.OrgAcronym, row.OrgType)
		if orgRef.ID == "" {
			result.Skipped++
			continue
		}
		result.Resolved = append(result.Resolved, model.ResolvedRow{
			Row:        row,
			Resolution: p.resolver.Resolve(row.CountryISO3, row.Location, row.ParentHint, row.AdminLevel),
			Org:        orgRef,
			SectorCode: sectorCode,
		})
	}
	return result
}

// totals counts rows through each stage. A row lands in exactly one of
// resolved, unresolved, skipped or rejected.
func totals(rowsIn, skipped int, resolved []model.ResolvedRow, res *aggregate.Result) model.RunTotals {
	return model.RunTotals{
		RowsIn:         rowsIn,
		RowsResolved:   len(resolved) - len(res.Unresolved) - len(res.Rejected),
		RowsUnresolved: len(res.Unresolved),
		RowsSkipped:    skipped,
		RowsRejected:   len(res.Rejected),
		Claims:         len(res.Claims),
	}
}

// groupByCountry buckets rows by ISO3, applying the country filter.
func (p *Pipeline) groupByCountry(rows []model.SourceRow) map[string][]model.SourceRow {
	allowed := map[string]bool{}
	for _, c := range p.config.Countries {
		allowed[c] = true
	}
	out := map[string][]model.SourceRow{}
	for _, row := range rows {
		if len(allowed) > 0 && !allowed[row.CountryISO3] {
			continue
		}
		out[row.CountryISO3] = append(out[row.CountryISO3], row)
	}
	return out
}

// Orgs exposes the run's observed organization decisions for rendering.
func (p *Pipeline) Orgs() []model.OrgRef {
	return p.orgs.Observed()
}

// Renderer exposes the output renderer.
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}
