// Package org canonicalizes organization name variants to stable
// organization identifiers. Merging of distinct cleaned names only ever
// happens through the explicit alias table; unknown organizations get a
// deterministic id derived from the cleaned name itself, so the same
// spelling always lands on the same id.
package org

import (
	"sort"
	"strings"
	"sync"

	"github.com/threewkit/threew/internal/model"
	"github.com/threewkit/threew/internal/util"
)

// maxAcronymLen caps acronyms the way the upstream 3W convention does.
const maxAcronymLen = 32

// Normalizer maps raw organization names to canonical OrgRefs.
// The alias table and suffix list are immutable after construction, so
// Normalize is safe to call from concurrent per-country workers.
type Normalizer struct {
	aliases  map[string]string // normalized raw name -> canonical org id
	suffixes map[string]bool   // normalized legal-entity suffixes
	types    *TypeMapper

	mu       sync.Mutex
	observed map[string]model.OrgRef // normalized raw name -> decision, for curation
}

// New builds a Normalizer from configuration. Alias keys are normalized
// at construction so lookups match regardless of source casing.
func New(cfg model.OrgConfig) *Normalizer {
	n := &Normalizer{
		aliases:  make(map[string]string, len(cfg.Aliases)),
		suffixes: make(map[string]bool, len(cfg.LegalSuffixes)),
		types:    NewTypeMapper(cfg.Types),
		observed: map[string]model.OrgRef{},
	}
	for raw, id := range cfg.Aliases {
		n.aliases[util.Normalise(raw)] = id
	}
	for _, s := range cfg.LegalSuffixes {
		n.suffixes[util.Normalise(s)] = true
	}
	return n
}

// Normalize maps one raw organization name to its canonical reference.
// An empty name falls back to the acronym, mirroring how 3W submissions
// often carry only the short form. The type string, when present and
// mappable, becomes a canonical type code on the reference; unmappable
// types go on the unmatched list, never invented.
func (n *Normalizer) Normalize(rawName, rawAcronym, rawType string) model.OrgRef {
	name := strings.TrimSpace(rawName)
	acronym := strings.TrimSpace(rawAcronym)
	if r := []rune(acronym); len(r) > maxAcronymLen {
		acronym = string(r[:maxAcronymLen])
	}
	if name == "" {
		name = acronym
	}
	if name == "" {
		return model.OrgRef{}
	}

	norm := util.Normalise(name)
	ref := model.OrgRef{CanonicalName: name, Acronym: acronym}

	if id, ok := n.aliases[norm]; ok {
		ref.ID = id
		ref.ViaAlias = true
	} else if id, ok := n.aliases[n.stripSuffixes(norm)]; ok {
		ref.ID = id
		ref.ViaAlias = true
	} else {
		ref.ID = util.Slugify(n.stripSuffixes(norm))
	}
	if code, ok := n.types.Code(rawType); ok {
		ref.TypeCode = code
	}

	return n.record(norm, ref)
}

// stripSuffixes drops trailing legal-entity tokens ("ltd", "inc", ...)
// from a normalized name, one at a time, never emptying the name.
func (n *Normalizer) stripSuffixes(norm string) string {
	tokens := strings.Fields(norm)
	for len(tokens) > 1 {
		last := strings.TrimRight(tokens[len(tokens)-1], ".,")
		if !n.suffixes[last] {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// record remembers the first decision per normalized name and shares
// type codes across rows of the same organization: a row that carries a
// type completes earlier rows that did not, and rows without a type
// inherit one already learned.
func (n *Normalizer) record(norm string, ref model.OrgRef) model.OrgRef {
	n.mu.Lock()
	defer n.mu.Unlock()
	prev, ok := n.observed[norm]
	if !ok {
		n.observed[norm] = ref
		return ref
	}
	if prev.TypeCode == "" && ref.TypeCode != "" {
		prev.TypeCode = ref.TypeCode
		n.observed[norm] = prev
	}
	if ref.TypeCode == "" {
		ref.TypeCode = prev.TypeCode
	}
	return ref
}

// UnmatchedTypes returns every raw organization-type string that failed
// to map, sorted, for the curation report.
func (n *Normalizer) UnmatchedTypes() []string {
	return n.types.Unmatched()
}

// Observed returns every raw-name decision made during the run, sorted by
// normalized name. This is the org map handed to curation.
func (n *Normalizer) Observed() []model.OrgRef {
	n.mu.Lock()
	defer n.mu.Unlock()
	keys := make([]string, 0, len(n.observed))
	for k := range n.observed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]model.OrgRef, len(keys))
	for i, k := range keys {
		out[i] = n.observed[k]
	}
	return out
}
