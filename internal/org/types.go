package org

import (
	"sort"
	"strings"
	"sync"

	"github.com/threewkit/threew/internal/match"
	"github.com/threewkit/threew/internal/model"
	"github.com/threewkit/threew/internal/util"
)

// builtinTypes holds the HRInfo organization-type codelist plus the
// extra entries conventional in 3W data (civil society, observers,
// development programmes, local NGOs).
var builtinTypes = map[string]string{
	"431": "Academic / Research",
	"432": "Civilians",
	"433": "Donor",
	"434": "Embassy",
	"435": "Government",
	"437": "International NGO",
	"438": "International Organization",
	"439": "Media",
	"440": "Military",
	"441": "National NGO",
	"443": "Non state armed groups",
	"444": "Other",
	"445": "Private sector",
	"446": "Red Cross / Red Crescent",
	"447": "Religious",
	"448": "United Nations",
	"449": "Unknown",

	"501": "Civil Society",
	"502": "Observer",
	"503": "Development Programme",
	"504": "Local NGO",
}

// TypeMapper resolves raw organization-type strings to canonical type
// codes. Like the sector mapper, the lookup table is frozen at
// construction and only the unmatched list mutates, under a lock.
type TypeMapper struct {
	cfg    model.OrgTypeConfig
	lookup map[string]string // raw, code and normalized variants -> code
	names  []string          // sorted lookup keys long enough to fuzzy-match

	mu        sync.Mutex
	unmatched map[string]bool
}

// NewTypeMapper builds a TypeMapper from the built-in codelist plus
// configured entries. Config entries win over built-ins on key collision.
func NewTypeMapper(cfg model.OrgTypeConfig) *TypeMapper {
	m := &TypeMapper{
		cfg:       cfg,
		lookup:    map[string]string{},
		unmatched: map[string]bool{},
	}
	for code, name := range builtinTypes {
		m.lookup[code] = code
		m.lookup[name] = code
		m.lookup[util.Normalise(code)] = code
		m.lookup[util.Normalise(name)] = code
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

// Code maps one raw organization-type string to its canonical code.
// Blank input is common in 3W submissions and simply means "no type";
// anything non-blank that cannot be mapped is recorded as unmatched.
func (m *TypeMapper) Code(raw string) (string, bool) {
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

// Unmatched returns every raw type string that failed to map, sorted.
func (m *TypeMapper) Unmatched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.unmatched))
	for s := range m.unmatched {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
