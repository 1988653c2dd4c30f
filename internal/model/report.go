package model

import "time"

// Report is the complete output of one aggregation run.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Countries   []string  `json:"countries"`

	Totals RunTotals `json:"totals"`

	Aggregates []AggregateRecord `json:"aggregates"`
	Indicators []IndicatorRow    `json:"indicators"`

	// Side lists for manual curation. Unresolved rows are excluded from
	// aggregation but must never silently vanish.
	Unresolved       []ResolvedRow `json:"unresolved,omitempty"`
	Rejected          []ResolvedRow `json:"rejected,omitempty"` // Invariant violations
	UnmatchedSectors  []string      `json:"unmatched_sectors,omitempty"`
	UnmatchedOrgTypes []string      `json:"unmatched_org_types,omitempty"`

	LLM *CurationHints `json:"llm,omitempty"` // Optional, never affects aggregates
}

// RunTotals counts rows through each stage of the run.
type RunTotals struct {
	RowsIn         int `json:"rows_in"`
	RowsResolved   int `json:"rows_resolved"`
	RowsUnresolved int `json:"rows_unresolved"`
	RowsSkipped    int `json:"rows_skipped"` // Missing sector or organization
	RowsRejected   int `json:"rows_rejected"`
	Claims         int `json:"claims"`
}

// CurationHints holds optional LLM-proposed matches for unresolved
// locations and unknown organization names. Hints are advisory output for
// human review and never feed back into resolution or aggregation.
type CurationHints struct {
	Enabled  bool     `json:"enabled"`
	Provider string   `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
	HintsMD  string   `json:"hints_md,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
