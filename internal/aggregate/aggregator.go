// Package aggregate builds the deduplicated presence-claim set from
// resolved rows and rolls it up to every reported administrative level.
// Everything here is keyed by sets and maps, never by input position, so
// the output is identical for any ordering (and any duplication) of the
// input rows.
package aggregate

import (
	"sort"

	"github.com/threewkit/threew/internal/admin"
	"github.com/threewkit/threew/internal/model"
)

// Aggregator rolls resolved rows up into AggregateRecords.
type Aggregator struct {
	ix     *admin.Index
	levels []int
}

// New creates an Aggregator reporting at the given admin levels.
func New(ix *admin.Index, levels []int) *Aggregator {
	seen := map[int]bool{}
	var uniq []int
	for _, l := range levels {
		if l >= 0 && !seen[l] {
			seen[l] = true
			uniq = append(uniq, l)
		}
	}
	sort.Ints(uniq)
	return &Aggregator{ix: ix, levels: uniq}
}

// Result is the full outcome of one aggregation pass.
type Result struct {
	Records []model.AggregateRecord

	// Claims is the deduplicated presence set with merged provenance:
	// any number of source rows collapsing to one triple appear once here.
	Claims map[model.PresenceClaim][]model.Provenance

	// Unresolved rows were excluded from aggregation; they are kept for
	// reporting and must never silently vanish.
	Unresolved []model.ResolvedRow

	// Rejected rows violated an aggregation invariant (admin code absent
	// from the Index). Each is rejected individually with provenance; the
	// run continues.
	Rejected []model.ResolvedRow
}

// Aggregate deduplicates claims and recomputes distinct-organization
// counts per (level, admin unit, sector).
func (a *Aggregator) Aggregate(rows []model.ResolvedRow) *Result {
	res := &Result{
		Claims: map[model.PresenceClaim][]model.Provenance{},
	}

	for _, row := range rows {
		if !row.Resolution.Resolved() {
			res.Unresolved = append(res.Unresolved, row)
			continue
		}
		if row.Org.ID == "" || row.SectorCode == "" {
			// Should have been filtered at ingestion; treat as a defect.
			res.Rejected = append(res.Rejected, row)
			continue
		}
		if _, ok := a.ix.LookupByCode(row.Row.CountryISO3, row.Resolution.AdminCode); !ok {
			res.Rejected = append(res.Rejected, row)
			continue
		}
		claim := model.PresenceClaim{
			CountryISO3: row.Row.CountryISO3,
			OrgID:       row.Org.ID,
			SectorCode:  row.SectorCode,
			AdminCode:   row.Resolution.AdminCode,
		}
		res.Claims[claim] = append(res.Claims[claim], row.Row.Provenance)
	}

	sortRows(res.Unresolved)
	sortRows(res.Rejected)
	for claim := range res.Claims {
		res.Claims[claim] = dedupeProvenance(res.Claims[claim])
	}

	res.Records = a.rollUp(res.Claims)
	return res
}

// rollUp recomputes the distinct-org sets at every reported level by
// walking each claim's admin unit up to that level's ancestor. Keys carry
// the country: the same admin code in two countries is two units.
func (a *Aggregator) rollUp(claims map[model.PresenceClaim][]model.Provenance) []model.AggregateRecord {
	type key struct {
		level   int
		country string
		admin   string
		sector  string
	}
	orgSets := map[key]map[string]bool{}

	for claim := range claims {
		for _, level := range a.levels {
			anc, ok := a.ix.AncestorAt(claim.CountryISO3, claim.AdminCode, level)
			if !ok {
				// Claim sits above this level; it has no level-N ancestor.
				continue
			}
			k := key{level: level, country: claim.CountryISO3, admin: anc.Code, sector: claim.SectorCode}
			if orgSets[k] == nil {
				orgSets[k] = map[string]bool{}
			}
			orgSets[k][claim.OrgID] = true
		}
	}

	records := make([]model.AggregateRecord, 0, len(orgSets))
	for k, orgs := range orgSets {
		ids := make([]string, 0, len(orgs))
		for id := range orgs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		records = append(records, model.AggregateRecord{
			CountryISO3: k.country,
			AdminCode:   k.admin,
			Level:       k.level,
			SectorCode:  k.sector,
			OrgCount:    len(ids),
			OrgIDs:      ids,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Level != records[j].Level {
			return records[i].Level < records[j].Level
		}
		if records[i].CountryISO3 != records[j].CountryISO3 {
			return records[i].CountryISO3 < records[j].CountryISO3
		}
		if records[i].AdminCode != records[j].AdminCode {
			return records[i].AdminCode < records[j].AdminCode
		}
		return records[i].SectorCode < records[j].SectorCode
	})
	return records
}

func sortRows(rows []model.ResolvedRow) {
	sort.Slice(rows, func(i, j int) bool {
		pi, pj := rows[i].Row.Provenance, rows[j].Row.Provenance
		if pi.SourceFile != pj.SourceFile {
			return pi.SourceFile < pj.SourceFile
		}
		return pi.RowNumber < pj.RowNumber
	})
}

func dedupeProvenance(provs []model.Provenance) []model.Provenance {
	sort.Slice(provs, func(i, j int) bool {
		if provs[i].SourceFile != provs[j].SourceFile {
			return provs[i].SourceFile < provs[j].SourceFile
		}
		return provs[i].RowNumber < provs[j].RowNumber
	})
	out := provs[:0]
	for i, p := range provs {
		if i == 0 || p != provs[i-1] {
			out = append(out, p)
		}
	}
	return out
}
