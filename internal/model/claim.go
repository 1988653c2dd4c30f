package model

// PresenceClaim asserts that one organization is active in one sector in
// one admin unit. Claims are deduplicated: any number of source rows
// collapsing to the same triple count once, with provenance merged.
// The country is part of the identity: admin codes are only unique
// within a country, so the same code in two countries is two claims.
type PresenceClaim struct {
	CountryISO3 string `json:"country_iso3"`
	OrgID       string `json:"org_id"`
	SectorCode  string `json:"sector_code"`
	AdminCode   string `json:"admin_code"`
}

// AggregateRecord is the rolled-up view of claims at one admin unit and
// sector for one administrative level. Derived, recomputed every run.
type AggregateRecord struct {
	CountryISO3 string   `json:"country_iso3"`
	AdminCode   string   `json:"admin_code"`
	Level       int      `json:"level"`
	SectorCode  string   `json:"sector_code"`
	OrgCount    int      `json:"org_count"`
	OrgIDs      []string `json:"org_ids"` // Sorted for stable output
}

// IndicatorRow is one coverage indicator for one admin unit at one
// reported level. Units with no recorded organizations are emitted with
// a zero count and Gap set rather than omitted.
type IndicatorRow struct {
	CountryISO3 string   `json:"country_iso3"`
	AdminCode   string   `json:"admin_code"`
	AdminName   string   `json:"admin_name"`
	Level       int      `json:"level"`
	OrgCount    int      `json:"org_count"`    // Distinct orgs across all sectors
	SectorCount int      `json:"sector_count"` // Distinct sectors covered
	Sectors     []string `json:"sectors,omitempty"`
	Gap         bool     `json:"gap"`
}
