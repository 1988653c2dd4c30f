package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/threewkit/threew/internal/admin"
	"github.com/threewkit/threew/internal/ingest"
	"github.com/threewkit/threew/internal/model"
	"github.com/threewkit/threew/internal/pipeline"
)

var (
	referenceFile string
	countryFilter []string
	levels        []int
	outDir        string
	csvName       string
	jsonName      string
	orgsName      string
	defaultISO3   string
	timeout       time.Duration
	noFuzzy       bool
	maxDistance   int
	workers       int
	llmEnabled    bool
	llmProvider   string
	llmModel      string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <source-file>...",
	Short: "Aggregate 3W source files into an operational-presence dataset",
	Long: `Run resolves, normalizes and aggregates one or more 3W source files
(CSV or XLSX) against a reference admin hierarchy:
- Resolve raw locations to canonical admin-unit codes
- Canonicalize organization names and sector labels
- Deduplicate presence claims and roll them up the hierarchy
- Compute per-unit coverage indicators, gaps included
- Report unresolved rows with their candidates for curation

Per-country column layouts (columns.<ISO3> in the config file) are
picked per source file from its ISO3 filename prefix, e.g. afg_3w.xlsx
reads with the AFG layout.

Example:
  threew run --reference cod_ab.csv afg_3w.xlsx
  threew run --reference cod_ab.csv --country AFG --out ./reports afg_3w.csv
  threew run --reference cod_ab.csv 3w.csv --llm openai --llm-model gpt-4o-mini`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Input flags
	runCmd.Flags().StringVar(&referenceFile, "reference", "", "reference admin hierarchy file (CSV or XLSX, required)")
	runCmd.Flags().StringVar(&defaultISO3, "default-country", "", "ISO3 used for rows without a country column")
	runCmd.Flags().StringSliceVar(&countryFilter, "country", nil, "restrict the run to these ISO3 codes")
	_ = runCmd.MarkFlagRequired("reference")

	// Processing flags
	runCmd.Flags().IntSliceVar(&levels, "levels", []int{0, 1, 2}, "admin levels to aggregate and report")
	runCmd.Flags().BoolVar(&noFuzzy, "no-fuzzy", false, "disable approximate location matching")
	runCmd.Flags().IntVar(&maxDistance, "max-distance", 2, "max edit distance for a fuzzy location match")
	runCmd.Flags().IntVar(&workers, "workers", 4, "concurrent country workers")
	runCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall run timeout")

	// Output flags
	runCmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	runCmd.Flags().StringVar(&csvName, "csv", "operational_presence.csv", "indicator CSV filename")
	runCmd.Flags().StringVar(&jsonName, "json", "report.json", "full report JSON filename")
	runCmd.Flags().StringVar(&orgsName, "orgs", "", "organization map CSV filename (optional)")

	// LLM flags
	runCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM curation hints for unresolved rows")
	runCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	runCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Reference: %s\n", referenceFile)
		fmt.Fprintf(os.Stderr, "Sources: %d file(s)\n", len(args))
		if len(cfg.Countries) > 0 {
			fmt.Fprintf(os.Stderr, "Countries: %v\n", cfg.Countries)
		}
		fmt.Fprintln(os.Stderr)
	}

	// A broken hierarchy aborts before any row is processed.
	units, err := ingest.ReadReference(referenceFile)
	if err != nil {
		return fmt.Errorf("read reference: %w", err)
	}
	ix, err := admin.Build(units)
	if err != nil {
		return fmt.Errorf("build admin index: %w", err)
	}

	var rows []model.SourceRow
	for _, path := range args {
		fileRows, err := ingest.ReadRows(path, defaultISO3, cfg.ColumnsFor(countryForFile(cfg, path, defaultISO3)))
		if err != nil {
			return fmt.Errorf("read source: %w", err)
		}
		rows = append(rows, fileRows...)
	}

	p := pipeline.New(cfg, ix)
	report, err := p.Run(ctx, rows)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	r := p.Renderer()
	if err := r.RenderCSV(report.Indicators, filepath.Join(cfg.Output.Dir, cfg.Output.CSVName)); err != nil {
		return fmt.Errorf("render csv: %w", err)
	}
	if err := r.RenderJSON(report, filepath.Join(cfg.Output.Dir, jsonName)); err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	if orgsName != "" {
		if err := r.RenderOrgsCSV(p.Orgs(), filepath.Join(cfg.Output.Dir, orgsName)); err != nil {
			return fmt.Errorf("render orgs: %w", err)
		}
	}
	if report.LLM != nil && report.LLM.HintsMD != "" {
		hintsPath := filepath.Join(cfg.Output.Dir, "curation_hints.md")
		if err := r.RenderHintsMarkdown(report.LLM, hintsPath); err != nil {
			return fmt.Errorf("render hints: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Curation hints: %s\n", hintsPath)
		}
	}

	r.RenderSummary(report, os.Stdout)
	return nil
}

// buildConfig layers defaults, config file / env values and flags.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Flags win over everything.
	cfg.Countries = append(cfg.Countries[:0], countryFilter...)
	cfg.Levels = levels
	cfg.Resolver.FuzzyEnabled = !noFuzzy
	cfg.Resolver.MaxDistance = maxDistance
	cfg.Concurrency.CountryWorkers = workers
	cfg.Output.Dir = outDir
	cfg.Output.CSVName = csvName
	cfg.Output.Verbose = verbose

	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel

		// Get API key from environment
		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	} else {
		cfg.LLM.Provider = ""
	}
	return cfg, nil
}

// countryForFile picks the column-mapping key for one source file.
// Submissions conventionally carry the ISO3 as a filename prefix
// ("afg_3w.xlsx"); a prefix with a configured mapping wins, so a
// mixed-country run reads each file with its own layout. Otherwise a
// single-country filter or the default ISO3 selects a per-country
// layout, and everything else uses the "default" mapping.
func countryForFile(cfg *model.Config, path, defaultISO3 string) string {
	if iso3 := iso3Prefix(filepath.Base(path)); iso3 != "" {
		if _, ok := cfg.Columns[iso3]; ok {
			return iso3
		}
	}
	if len(cfg.Countries) == 1 {
		return cfg.Countries[0]
	}
	if defaultISO3 != "" {
		return defaultISO3
	}
	return "default"
}

// iso3Prefix extracts a leading country code from a file name like
// "afg_3w.xlsx": exactly three letters followed by a separator or the
// end of the name.
func iso3Prefix(name string) string {
	if len(name) < 3 {
		return ""
	}
	for _, c := range name[:3] {
		if !unicode.IsLetter(c) {
			return ""
		}
	}
	if len(name) > 3 {
		next := rune(name[3])
		if unicode.IsLetter(next) || unicode.IsDigit(next) {
			return ""
		}
	}
	return strings.ToUpper(name[:3])
}
