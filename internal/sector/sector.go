// Package sector maps raw sector strings from 3W submissions to canonical
// sector codes. The lookup table combines the built-in global cluster
// codes with config-supplied entries; strings that cannot be mapped are
// collected for curation instead of being guessed at.
package sector

import (
	"sort"
	"strings"
	"sync"

	"github.com/threewkit/threew/internal/match"
	"github.com/threewkit/threew/internal/model"
	"github.com/threewkit/threew/internal/util"
)

// builtin holds the global cluster codes plus the catch-all entries
// conventional in 3W data (cash, unspecified humanitarian, multi-sector).
var builtin = map[string]string{
	"CCM": "Camp Coordination and Camp Management",
	"EDU": "Education",
	"ERY": "Early Recovery",
	"FSC": "Food Security",
	"HEA": "Health",
	"LOG": "Logistics",
	"NUT": "Nutrition",
	"PRO": "Protection",
	"SHL": "Shelter",
	"TEL": "Emergency Telecommunications",
	"WSH": "Water Sanitation Hygiene",

	"Cash":          "Cash programming",
	"Hum":           "Humanitarian assistance (unspecified)",
	"Multi":         "Multi-sector (unspecified)",
	"Intersectoral": "Intersectoral",
}

// Mapper resolves raw sector strings to codes. The lookup table is frozen
// at construction; only the unmatched list mutates, under a lock, so Code
// is safe for concurrent workers.
type Mapper struct {
	cfg    model.SectorConfig
	lookup map[string]string // raw, code and normalized variants -> code
	names  []string          // sorted lookup keys long enough to fuzzy-match

	mu        sync.Mutex
	unmatched map[string]bool
}

// New builds a Mapper from the built-in table plus configured entries.
// Config entries win over built-ins on key collision.
func New(cfg model.SectorConfig) *Mapper {
	m := &Mapper{
		cfg:       cfg,
		lookup:    map[string]string{},
		unmatched: map[string]bool{},
	}
	for code, name := range builtin {
		m.register(code, name)
	}
	for raw, code := range cfg.Map {
		m.lookup[raw] = code
		m.lookup[util.Normalise(raw)] = code
	}
	for key := range m.lookup {
		if len([]rune(key)) > cfg.MinFuzzyLength {
			m.names = append(m.names, key)
		}
	}
	sort.Strings(m.names)
	return m
}

func (m *Mapper) register(code, name string) {
	m.lookup[code] = code
	m.lookup[name] = code
	m.lookup[util.Normalise(code)] = code
	m.lookup[util.Normalise(name)] = code
}

// Code maps one raw sector string to its canonical code. Inputs at or
// below the configured minimum length never fuzzy-match; anything
// unmappable is recorded as unmatched and reported, not invented.
func (m *Mapper) Code(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if code, ok := m.lookup[raw]; ok {
		return code, true
	}
	norm := util.Normalise(raw)
	if code, ok := m.lookup[norm]; ok {
		return code, true
	}
	if m.cfg.FuzzyEnabled && len([]rune(norm)) > m.cfg.MinFuzzyLength {
		if best, _ := match.Closest(norm, m.names, m.cfg.MaxDistance); len(best) == 1 {
			return m.lookup[best[0]], true
		}
	}
	m.mu.Lock()
	m.unmatched[raw] = true
	m.mu.Unlock()
	return "", false
}

// Unmatched returns every raw sector string that failed to map, sorted.
func (m *Mapper) Unmatched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.unmatched))
	for s := range m.unmatched {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
