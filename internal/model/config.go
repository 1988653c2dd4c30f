package model

// Config holds the complete run configuration.
// Populated from defaults, then ~/.threew/config.yaml, then THREEW_* env
// vars, then CLI flags (highest priority).
type Config struct {
	Countries   []string          `yaml:"countries" mapstructure:"countries"` // ISO3 filter; empty = all
	Levels      []int             `yaml:"levels" mapstructure:"levels"`       // Admin levels to report
	Resolver    ResolverConfig    `yaml:"resolver" mapstructure:"resolver"`
	Org         OrgConfig         `yaml:"org" mapstructure:"org"`
	Sector      SectorConfig      `yaml:"sector" mapstructure:"sector"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`

	// Columns maps an ISO3 country code to that country's source-file
	// column headers. The "default" entry applies to everything else.
	Columns map[string]ColumnsConfig `yaml:"columns" mapstructure:"columns"`
}

// ColumnsConfig names the source-file columns holding each field, since
// every country's 3W submission lays its sheet out differently.
type ColumnsConfig struct {
	Country    string `yaml:"country" mapstructure:"country"`
	Adm1Code   string `yaml:"adm1_code" mapstructure:"adm1_code"`
	Adm1Name   string `yaml:"adm1_name" mapstructure:"adm1_name"`
	Adm2Code   string `yaml:"adm2_code" mapstructure:"adm2_code"`
	Adm2Name   string `yaml:"adm2_name" mapstructure:"adm2_name"`
	OrgName    string `yaml:"org_name" mapstructure:"org_name"`
	OrgAcronym string `yaml:"org_acronym" mapstructure:"org_acronym"`
	OrgType    string `yaml:"org_type" mapstructure:"org_type"`
	Sector     string `yaml:"sector" mapstructure:"sector"`
}

// DefaultColumns returns the conventional 3W header names.
func DefaultColumns() ColumnsConfig {
	return ColumnsConfig{
		Country:    "country_iso3",
		Adm1Code:   "adm1_code",
		Adm1Name:   "adm1_name",
		Adm2Code:   "adm2_code",
		Adm2Name:   "adm2_name",
		OrgName:    "org_name",
		OrgAcronym: "org_acronym",
		OrgType:    "org_type",
		Sector:     "sector",
	}
}

// ColumnsFor returns the column mapping for one country, falling back to
// the "default" entry and then the built-in convention.
func (c *Config) ColumnsFor(countryISO3 string) ColumnsConfig {
	if cols, ok := c.Columns[countryISO3]; ok {
		return cols
	}
	if cols, ok := c.Columns["default"]; ok {
		return cols
	}
	return DefaultColumns()
}

// ResolverConfig tunes the location resolver's fallback matching.
// The distance threshold is deliberately a knob, not a constant: the
// right value varies by country naming conventions.
type ResolverConfig struct {
	FuzzyEnabled   bool `yaml:"fuzzy_enabled" mapstructure:"fuzzy_enabled"`
	MaxDistance    int  `yaml:"max_distance" mapstructure:"max_distance"`         // Max edit distance for a fuzzy match
	MinFuzzyLength int  `yaml:"min_fuzzy_length" mapstructure:"min_fuzzy_length"` // Inputs at or below this never fuzzy-match
	CacheTTLSecs   int  `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`     // Resolution memo cache TTL
}

// OrgConfig configures organization name normalization.
type OrgConfig struct {
	// Aliases maps raw organization names (matched after normalization)
	// to canonical organization ids. Merging distinct cleaned names only
	// ever happens through this table.
	Aliases       map[string]string `yaml:"aliases" mapstructure:"aliases"`
	LegalSuffixes []string          `yaml:"legal_suffixes" mapstructure:"legal_suffixes"`
	Types         OrgTypeConfig     `yaml:"types" mapstructure:"types"`
}

// OrgTypeConfig configures organization type-code mapping.
type OrgTypeConfig struct {
	// Map holds raw type names/codes to canonical type codes, on top of
	// the built-in codelist.
	Map            map[string]string `yaml:"map" mapstructure:"map"`
	FuzzyEnabled   bool              `yaml:"fuzzy_enabled" mapstructure:"fuzzy_enabled"`
	MaxDistance    int               `yaml:"max_distance" mapstructure:"max_distance"`
	MinFuzzyLength int               `yaml:"min_fuzzy_length" mapstructure:"min_fuzzy_length"`
}

// SectorConfig configures sector code mapping.
type SectorConfig struct {
	// Map holds raw sector names/codes to canonical sector codes, on top
	// of the built-in entries.
	Map            map[string]string `yaml:"map" mapstructure:"map"`
	FuzzyEnabled   bool              `yaml:"fuzzy_enabled" mapstructure:"fuzzy_enabled"`
	MaxDistance    int               `yaml:"max_distance" mapstructure:"max_distance"`
	MinFuzzyLength int               `yaml:"min_fuzzy_length" mapstructure:"min_fuzzy_length"`
}

// ConcurrencyConfig controls per-country parallel resolution.
type ConcurrencyConfig struct {
	CountryWorkers int `yaml:"country_workers" mapstructure:"country_workers"`
}

// LLMConfig configures the optional curation-hint provider.
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // "openai", "ollama", "" = disabled
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKey            string  `yaml:"-" mapstructure:"-"` // Env only, never persisted
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxHints          int     `yaml:"max_hints" mapstructure:"max_hints"` // Cap on items sent for suggestion
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	CSVName string `yaml:"csv_name" mapstructure:"csv_name"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns sensible defaults for all settings.
func DefaultConfig() *Config {
	return &Config{
		Levels: []int{0, 1, 2},
		Resolver: ResolverConfig{
			FuzzyEnabled:   true,
			MaxDistance:    2,
			MinFuzzyLength: 5,
			CacheTTLSecs:   3600,
		},
		Org: OrgConfig{
			Aliases: map[string]string{},
			LegalSuffixes: []string{
				"inc", "ltd", "llc", "plc", "gmbh", "co", "corp",
				"company", "limited", "incorporated", "corporation",
			},
			Types: OrgTypeConfig{
				Map:            map[string]string{},
				FuzzyEnabled:   true,
				MaxDistance:    2,
				MinFuzzyLength: 5,
			},
		},
		Sector: SectorConfig{
			Map:            map[string]string{},
			FuzzyEnabled:   true,
			MaxDistance:    2,
			MinFuzzyLength: 5,
		},
		Concurrency: ConcurrencyConfig{
			CountryWorkers: 4,
		},
		LLM: LLMConfig{
			Provider:          "", // Disabled by default
			TimeoutSecs:       30,
			MaxTokens:         1000,
			MaxHints:          50,
			RequestsPerSecond: 1,
		},
		Output: OutputConfig{
			Dir:     ".",
			CSVName: "operational_presence.csv",
		},
		Columns: map[string]ColumnsConfig{},
	}
}
