// Package resolve turns raw (country, location) pairs from source rows
// into canonical admin-unit codes, tagging each outcome with a match
// confidence. Resolution failure is data, not an error: rows that cannot
// be matched come back tagged unresolved with every candidate recorded,
// and the caller keeps them on a side list for manual review.
package resolve

import (
	"fmt"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/threewkit/threew/internal/admin"
	"github.com/threewkit/threew/internal/match"
	"github.com/threewkit/threew/internal/model"
	"github.com/threewkit/threew/internal/util"
)

// Resolver resolves raw locations against a read-only admin Index.
// Safe for concurrent use: the Index is immutable and the memo cache is
// internally synchronized.
type Resolver struct {
	ix   *admin.Index
	cfg  model.ResolverConfig
	memo *gocache.Cache
}

// New creates a Resolver over the given Index.
func New(ix *admin.Index, cfg model.ResolverConfig) *Resolver {
	ttl := time.Duration(cfg.CacheTTLSecs) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Resolver{
		ix:   ix,
		cfg:  cfg,
		memo: gocache.New(ttl, 2*ttl),
	}
}

// Resolve maps a raw location at the expected level to an admin unit.
// Strategy, first success wins: p-code lookup (exact), normalized
// name/alias lookup with parent-hint disambiguation (exact/alias), then
// approximate matching under the configured threshold (fuzzy). Ambiguity
// that survives disambiguation is returned unresolved with all candidates
// rather than guessed at.
func (r *Resolver) Resolve(country, rawLocation, parentHint string, level int) model.Resolution {
	key := memoKey(country, level, rawLocation, parentHint)
	if cached, found := r.memo.Get(key); found {
		return cached.(model.Resolution)
	}
	res := r.resolve(country, rawLocation, parentHint, level)
	r.memo.Set(key, res, gocache.DefaultExpiration)
	return res
}

func (r *Resolver) resolve(country, rawLocation, parentHint string, level int) model.Resolution {
	raw := strings.TrimSpace(rawLocation)
	if raw == "" {
		return model.Resolution{Confidence: model.ConfidenceUnresolved}
	}

	// 1. Code match. The lookup is exact, so no shape gate is needed:
	// a raw value that is a registered code at the expected level wins
	// outright. Unknown code-shaped strings fall through to name
	// matching (a short name can look like a code).
	if u, ok := r.ix.LookupByCode(country, raw); ok && u.Level == level {
		return model.Resolution{AdminCode: u.Code, Confidence: model.ConfidenceExact}
	}

	// 2. Name / alias match.
	byName := r.ix.NameCandidates(country, level, raw)
	byAlias := r.ix.AliasCandidates(country, level, raw)
	candidates, viaAlias := mergeCandidates(byName, byAlias)

	if len(candidates) > 1 {
		candidates = r.filterByParent(country, parentHint, level, candidates)
	}
	if len(candidates) == 1 {
		conf := model.ConfidenceExact
		if viaAlias[candidates[0].Code] {
			conf = model.ConfidenceAlias
		}
		return model.Resolution{AdminCode: candidates[0].Code, Confidence: conf}
	}
	if len(candidates) > 1 {
		return unresolvedWith(candidates)
	}

	// 3. Approximate match.
	return r.resolveFuzzy(country, raw, parentHint, level)
}

func (r *Resolver) resolveFuzzy(country, raw, parentHint string, level int) model.Resolution {
	// Code-shaped strings never fuzzy-match names: "AB03" being one edit
	// from "AB01" means a typoed p-code, not a nearby name.
	norm := util.Normalise(raw)
	if !r.cfg.FuzzyEnabled || admin.LooksLikeCode(raw) || len([]rune(norm)) <= r.cfg.MinFuzzyLength {
		return model.Resolution{Confidence: model.ConfidenceUnresolved}
	}

	names := r.ix.NormalizedNames(country, level)
	best, _ := match.Closest(norm, names, r.cfg.MaxDistance)
	if len(best) == 0 {
		return model.Resolution{Confidence: model.ConfidenceUnresolved}
	}

	var candidates []*model.AdminUnit
	seen := map[string]bool{}
	for _, name := range best {
		for _, u := range r.ix.LookupByName(country, level, name) {
			if !seen[u.Code] {
				seen[u.Code] = true
				candidates = append(candidates, u)
			}
		}
	}
	if len(candidates) > 1 {
		candidates = r.filterByParent(country, parentHint, level, candidates)
	}
	if len(candidates) == 1 {
		return model.Resolution{AdminCode: candidates[0].Code, Confidence: model.ConfidenceFuzzy}
	}
	return unresolvedWith(candidates)
}

// filterByParent narrows candidates to those descending from the unit the
// parent hint resolves to. The hint itself is resolved non-fuzzily; an
// unusable hint leaves the candidate set unchanged.
func (r *Resolver) filterByParent(country, parentHint string, level int, candidates []*model.AdminUnit) []*model.AdminUnit {
	if level < 1 {
		return candidates
	}
	parentCode, ok := r.resolveParent(country, parentHint, level-1)
	if !ok {
		return candidates
	}
	var kept []*model.AdminUnit
	for _, u := range candidates {
		if anc, found := r.ix.AncestorAt(country, u.Code, level-1); found && anc.Code == parentCode {
			kept = append(kept, u)
		}
	}
	if len(kept) == 0 {
		return candidates
	}
	return kept
}

func (r *Resolver) resolveParent(country, hint string, parentLevel int) (string, bool) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return "", false
	}
	if u, ok := r.ix.LookupByCode(country, hint); ok && u.Level == parentLevel {
		return u.Code, true
	}
	units := r.ix.LookupByName(country, parentLevel, hint)
	if len(units) == 1 {
		return units[0].Code, true
	}
	return "", false
}

// mergeCandidates unions name and alias matches, remembering which units
// were reachable only through an alias.
func mergeCandidates(byName, byAlias []*model.AdminUnit) ([]*model.AdminUnit, map[string]bool) {
	viaAlias := map[string]bool{}
	seen := map[string]bool{}
	var out []*model.AdminUnit
	for _, u := range byName {
		if !seen[u.Code] {
			seen[u.Code] = true
			out = append(out, u)
		}
	}
	for _, u := range byAlias {
		if !seen[u.Code] {
			seen[u.Code] = true
			viaAlias[u.Code] = true
			out = append(out, u)
		}
	}
	return out, viaAlias
}

// unresolvedWith records the surviving candidates, sorted by code so the
// same ambiguity always reports identically.
func unresolvedWith(candidates []*model.AdminUnit) model.Resolution {
	if len(candidates) == 0 {
		return model.Resolution{Confidence: model.ConfidenceUnresolved}
	}
	codes := make([]string, len(candidates))
	for i, u := range candidates {
		codes[i] = u.Code
	}
	sort.Strings(codes)
	return model.Resolution{Confidence: model.ConfidenceUnresolved, Candidates: codes}
}

func memoKey(country string, level int, raw, hint string) string {
	return fmt.Sprintf("%s|%d|%s|%s", strings.ToUpper(strings.TrimSpace(country)), level, util.Normalise(raw), util.Normalise(hint))
}
