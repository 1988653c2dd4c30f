package model

// AdminUnit is one node of a country's administrative hierarchy.
// Level 0 is the country itself; level 1 and 2 are subdivisions.
// The admin.Index owns all AdminUnit values for the lifetime of a run;
// every other entity refers to a unit by its code only.
type AdminUnit struct {
	Code        string   `json:"code"`                   // Stable p-code, unique per country+level
	Name        string   `json:"name"`                   // Canonical name
	Level       int      `json:"level"`                  // 0=country, 1, 2...
	ParentCode  string   `json:"parent_code,omitempty"`  // Empty for the root unit
	CountryISO3 string   `json:"country_iso3"`           // ISO3 of the owning country
	Aliases     []string `json:"aliases,omitempty"`      // Alternate names/spellings
}

// Provenance points back at the source row a record came from.
type Provenance struct {
	SourceFile string `json:"source_file"`
	RowNumber  int    `json:"row_number"` // 1-based, as in the source sheet
}
