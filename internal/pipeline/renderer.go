package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/threewkit/threew/internal/model"
)

// Renderer writes run output: the canonical indicator table as CSV, the
// full report as JSON, curation hints as markdown, and a human summary.
type Renderer struct {
	verbose bool
}

// NewRenderer creates a renderer.
func NewRenderer(verbose bool) *Renderer {
	return &Renderer{verbose: verbose}
}

// RenderJSON writes the full report as indented JSON.
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderCSV writes the indicator table, one row per admin unit per level,
// gaps included.
func (r *Renderer) RenderCSV(indicators []model.IndicatorRow, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close csv: %w", closeErr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"country_iso3", "admin_code", "admin_name", "level", "org_count", "sector_count", "sectors", "gap"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range indicators {
		gap := "N"
		if row.Gap {
			gap = "Y"
		}
		record := []string{
			row.CountryISO3,
			row.AdminCode,
			row.AdminName,
			strconv.Itoa(row.Level),
			strconv.Itoa(row.OrgCount),
			strconv.Itoa(row.SectorCount),
			strings.Join(row.Sectors, "|"),
			gap,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// RenderOrgsCSV writes the observed organization map for curation.
func (r *Renderer) RenderOrgsCSV(orgs []model.OrgRef, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create orgs csv: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close orgs csv: %w", closeErr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"org_id", "canonical_name", "acronym", "type_code", "via_alias"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, o := range orgs {
		via := "N"
		if o.ViaAlias {
			via = "Y"
		}
		if err := w.Write([]string{o.ID, o.CanonicalName, o.Acronym, o.TypeCode, via}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush orgs csv: %w", err)
	}
	return nil
}

// RenderHintsMarkdown writes LLM curation hints to their own file, kept
// apart from the canonical outputs.
func (r *Renderer) RenderHintsMarkdown(hints *model.CurationHints, path string) error {
	var b strings.Builder
	b.WriteString("# Curation hints\n\n")
	fmt.Fprintf(&b, "Provider: %s (%s)\n\n", hints.Provider, hints.Model)
	b.WriteString("These are machine-proposed matches for manual review. They have\n")
	b.WriteString("not been applied to the dataset.\n\n")
	b.WriteString(hints.HintsMD)
	b.WriteString("\n")
	for _, warn := range hints.Warnings {
		fmt.Fprintf(&b, "\n> Warning: %s\n", warn)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write hints: %w", err)
	}
	return nil
}

// RenderSummary prints the run summary.
func (r *Renderer) RenderSummary(report *model.Report, w io.Writer) {
	fmt.Fprintf(w, "Run %s\n", report.RunID)
	fmt.Fprintf(w, "Countries: %s\n", strings.Join(report.Countries, ", "))
	fmt.Fprintf(w, "Rows: %d in, %d resolved, %d unresolved, %d skipped, %d rejected\n",
		report.Totals.RowsIn, report.Totals.RowsResolved, report.Totals.RowsUnresolved,
		report.Totals.RowsSkipped, report.Totals.RowsRejected)
	fmt.Fprintf(w, "Presence claims: %d\n", report.Totals.Claims)

	gaps := 0
	for _, row := range report.Indicators {
		if row.Gap {
			gaps++
		}
	}
	fmt.Fprintf(w, "Indicators: %d rows, %d coverage gaps\n", len(report.Indicators), gaps)

	if len(report.UnmatchedSectors) > 0 {
		fmt.Fprintf(w, "Unmatched sectors: %s\n", strings.Join(report.UnmatchedSectors, ", "))
	}
	if len(report.UnmatchedOrgTypes) > 0 {
		fmt.Fprintf(w, "Unmatched org types: %s\n", strings.Join(report.UnmatchedOrgTypes, ", "))
	}
	if r.verbose && len(report.Unresolved) > 0 {
		fmt.Fprintln(w, "Unresolved locations:")
		for _, row := range report.Unresolved {
			fmt.Fprintf(w, "  %s %q (%s row %d)",
				row.Row.CountryISO3, row.Row.Location,
				row.Row.Provenance.SourceFile, row.Row.Provenance.RowNumber)
			if len(row.Resolution.Candidates) > 0 {
				fmt.Fprintf(w, " candidates: %s", strings.Join(row.Resolution.Candidates, ", "))
			}
			fmt.Fprintln(w)
		}
	}
}
