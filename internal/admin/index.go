// Package admin builds and queries the reference administrative hierarchy
// (country → admin1 → admin2). The Index is constructed once per run from
// reference data, validated eagerly, and read-only afterwards, so it is
// safe to share across concurrent per-country workers.
package admin

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/threewkit/threew/internal/model"
	"github.com/threewkit/threew/internal/util"
)

// Construction errors. All of them are configuration defects in the
// reference data and abort the run before any row is processed.
var (
	ErrEmptyCode     = errors.New("admin unit has empty code")
	ErrEmptyCountry  = errors.New("admin unit has empty country")
	ErrDuplicateCode = errors.New("duplicate admin code")
	ErrMissingParent = errors.New("parent code not found at parent level")
	ErrNoParent      = errors.New("non-root admin unit has no parent code")
)

// pcodeRe is the shape of a p-code: an ISO2/ISO3 country prefix followed
// by digits, e.g. "AFG01" or "CD5102".
var pcodeRe = regexp.MustCompile(`^[A-Za-z]{2,3}[0-9]+$`)

// Index holds every admin unit of the reference hierarchy, addressable by
// code and by normalized name or alias. The Index owns the units; callers
// hold codes.
type Index struct {
	byCode  map[string]*model.AdminUnit   // country|CODE
	byName  map[string][]*model.AdminUnit // country|level|normalized name
	byAlias map[string][]*model.AdminUnit // country|level|normalized alias
	byLevel map[string][]*model.AdminUnit // country|level, sorted by code
}

// Build constructs and validates an Index from reference units.
// It fails fast on duplicate codes and orphaned parents so a broken
// hierarchy never reaches row processing.
func Build(units []model.AdminUnit) (*Index, error) {
	ix := &Index{
		byCode:  make(map[string]*model.AdminUnit, len(units)),
		byName:  make(map[string][]*model.AdminUnit),
		byAlias: make(map[string][]*model.AdminUnit),
		byLevel: make(map[string][]*model.AdminUnit),
	}

	// First pass: register codes so parent links can point forward.
	owned := make([]model.AdminUnit, len(units))
	copy(owned, units)
	for i := range owned {
		u := &owned[i]
		u.Code = strings.ToUpper(strings.TrimSpace(u.Code))
		u.ParentCode = strings.ToUpper(strings.TrimSpace(u.ParentCode))
		u.CountryISO3 = strings.ToUpper(strings.TrimSpace(u.CountryISO3))
		if u.Code == "" {
			return nil, fmt.Errorf("unit %q (level %d): %w", u.Name, u.Level, ErrEmptyCode)
		}
		if u.CountryISO3 == "" {
			return nil, fmt.Errorf("unit %s: %w", u.Code, ErrEmptyCountry)
		}
		key := codeKey(u.CountryISO3, u.Code)
		if _, exists := ix.byCode[key]; exists {
			return nil, fmt.Errorf("unit %s (%s): %w", u.Code, u.CountryISO3, ErrDuplicateCode)
		}
		ix.byCode[key] = u
	}

	// Second pass: parent links, name and alias tables.
	for i := range owned {
		u := &owned[i]
		if u.Level > 0 {
			if u.ParentCode == "" {
				return nil, fmt.Errorf("unit %s (level %d): %w", u.Code, u.Level, ErrNoParent)
			}
			parent, ok := ix.byCode[codeKey(u.CountryISO3, u.ParentCode)]
			if !ok || parent.Level != u.Level-1 {
				return nil, fmt.Errorf("unit %s parent %s: %w", u.Code, u.ParentCode, ErrMissingParent)
			}
		}
		nk := nameKey(u.CountryISO3, u.Level, util.Normalise(u.Name))
		ix.byName[nk] = append(ix.byName[nk], u)
		for _, alias := range u.Aliases {
			ak := nameKey(u.CountryISO3, u.Level, util.Normalise(alias))
			ix.byAlias[ak] = append(ix.byAlias[ak], u)
		}
		lk := levelKey(u.CountryISO3, u.Level)
		ix.byLevel[lk] = append(ix.byLevel[lk], u)
	}

	for _, units := range ix.byLevel {
		sort.Slice(units, func(i, j int) bool { return units[i].Code < units[j].Code })
	}
	return ix, nil
}

// LookupByCode finds a unit by its p-code. Codes compare case-insensitively.
func (ix *Index) LookupByCode(country, code string) (*model.AdminUnit, bool) {
	u, ok := ix.byCode[codeKey(strings.ToUpper(strings.TrimSpace(country)), strings.ToUpper(strings.TrimSpace(code)))]
	return u, ok
}

// LookupByName returns every unit at the requested level whose normalized
// canonical name or any registered alias equals the normalized input.
// Disambiguation is the caller's job.
func (ix *Index) LookupByName(country string, level int, name string) []*model.AdminUnit {
	byName := ix.NameCandidates(country, level, name)
	byAlias := ix.AliasCandidates(country, level, name)
	if len(byAlias) == 0 {
		return byName
	}
	seen := make(map[string]bool, len(byName))
	out := append([]*model.AdminUnit{}, byName...)
	for _, u := range byName {
		seen[u.Code] = true
	}
	for _, u := range byAlias {
		if !seen[u.Code] {
			out = append(out, u)
		}
	}
	return out
}

// NameCandidates returns units matched through their canonical name only.
func (ix *Index) NameCandidates(country string, level int, name string) []*model.AdminUnit {
	return ix.byName[nameKey(strings.ToUpper(strings.TrimSpace(country)), level, util.Normalise(name))]
}

// AliasCandidates returns units matched through the alias table only.
func (ix *Index) AliasCandidates(country string, level int, name string) []*model.AdminUnit {
	return ix.byAlias[nameKey(strings.ToUpper(strings.TrimSpace(country)), level, util.Normalise(name))]
}

// UnitsAt returns all units of one country at one level, sorted by code.
func (ix *Index) UnitsAt(country string, level int) []*model.AdminUnit {
	return ix.byLevel[levelKey(strings.ToUpper(strings.TrimSpace(country)), level)]
}

// NormalizedNames returns the sorted, deduplicated normalized names and
// aliases of all units at one level, for approximate matching.
func (ix *Index) NormalizedNames(country string, level int) []string {
	seen := map[string]bool{}
	for _, u := range ix.UnitsAt(country, level) {
		seen[util.Normalise(u.Name)] = true
		for _, a := range u.Aliases {
			seen[util.Normalise(a)] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AncestorAt walks parent links from code up to the unit at the requested
// level. Passing the unit's own level returns the unit itself.
func (ix *Index) AncestorAt(country, code string, level int) (*model.AdminUnit, bool) {
	u, ok := ix.LookupByCode(country, code)
	if !ok || u.Level < level {
		return nil, false
	}
	for u.Level > level {
		u, ok = ix.LookupByCode(country, u.ParentCode)
		if !ok {
			return nil, false
		}
	}
	return u, true
}

// Countries returns the sorted ISO3 codes present in the Index.
func (ix *Index) Countries() []string {
	seen := map[string]bool{}
	for _, u := range ix.byCode {
		seen[u.CountryISO3] = true
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// LooksLikeCode reports whether a raw location string has p-code shape
// (letter prefix followed by digits) rather than being a plain name.
func LooksLikeCode(s string) bool {
	return pcodeRe.MatchString(strings.TrimSpace(s))
}

func codeKey(country, code string) string {
	return country + "|" + code
}

func nameKey(country string, level int, norm string) string {
	return fmt.Sprintf("%s|%d|%s", country, level, norm)
}

func levelKey(country string, level int) string {
	return fmt.Sprintf("%s|%d", country, level)
}
