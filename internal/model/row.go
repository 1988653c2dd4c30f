package model

// SourceRow is one raw record from a country's 3W submission, already
// decoded into plain fields by the ingestion boundary. Immutable once read.
type SourceRow struct {
	CountryISO3 string     `json:"country_iso3"`
	Location    string     `json:"location"`              // Raw admin name or p-code
	AdminLevel  int        `json:"admin_level"`           // Level Location is expected at
	ParentHint  string     `json:"parent_hint,omitempty"` // Admin1 supplied alongside an admin2
	OrgName     string     `json:"org_name"`
	OrgAcronym  string     `json:"org_acronym,omitempty"`
	OrgType     string     `json:"org_type,omitempty"` // Raw organization type name or code
	Sector      string     `json:"sector"`             // Raw sector name or code
	Provenance  Provenance `json:"provenance"`
}

// Confidence tags how a raw location was matched to an admin unit
type Confidence string

const (
	ConfidenceExact      Confidence = "exact"      // Code match or unique canonical-name match
	ConfidenceAlias      Confidence = "alias"      // Unique match via the alias table
	ConfidenceFuzzy      Confidence = "fuzzy"      // Unique best approximate match under threshold
	ConfidenceUnresolved Confidence = "unresolved" // No match, or ambiguity that survived disambiguation
)

// Resolution is the outcome of resolving one raw location.
// Unresolved resolutions carry every candidate considered so the row can
// be reviewed manually instead of silently guessed at.
type Resolution struct {
	AdminCode  string     `json:"admin_code,omitempty"`
	Confidence Confidence `json:"confidence"`
	Candidates []string   `json:"candidates,omitempty"` // Codes, only when unresolved and ambiguous
}

// Resolved reports whether the resolution produced a usable admin code.
func (r Resolution) Resolved() bool {
	return r.Confidence != ConfidenceUnresolved
}

// OrgRef is the Organization Normalizer's output for one raw name.
type OrgRef struct {
	ID            string `json:"id"`             // Stable organization identifier
	CanonicalName string `json:"canonical_name"` // Display name
	Acronym       string `json:"acronym,omitempty"`
	TypeCode      string `json:"type_code,omitempty"` // Canonical organization type code
	ViaAlias      bool   `json:"via_alias,omitempty"` // True when the alias map decided the id
}

// ResolvedRow is a SourceRow after location resolution, organization
// normalization and sector mapping. Never mutated after creation.
type ResolvedRow struct {
	Row        SourceRow  `json:"row"`
	Resolution Resolution `json:"resolution"`
	Org        OrgRef     `json:"org"`
	SectorCode string     `json:"sector_code"`
}
