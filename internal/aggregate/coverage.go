package aggregate

import (
	"sort"

	"github.com/threewkit/threew/internal/admin"
	"github.com/threewkit/threew/internal/model"
)

// Coverage derives one indicator row per admin unit at each reported
// level. Units with no recorded organizations are emitted explicitly with
// a zero count and the gap flag set: absence of data is a first-class
// output in this domain, never an omission.
func Coverage(res *Result, ix *admin.Index, levels []int) []model.IndicatorRow {
	type unitKey struct {
		level   int
		country string
		admin   string
	}
	orgs := map[unitKey]map[string]bool{}
	sectors := map[unitKey]map[string]bool{}

	for _, rec := range res.Records {
		k := unitKey{level: rec.Level, country: rec.CountryISO3, admin: rec.AdminCode}
		if orgs[k] == nil {
			orgs[k] = map[string]bool{}
			sectors[k] = map[string]bool{}
		}
		for _, id := range rec.OrgIDs {
			orgs[k][id] = true
		}
		sectors[k][rec.SectorCode] = true
	}

	seen := map[int]bool{}
	var uniq []int
	for _, l := range levels {
		if l >= 0 && !seen[l] {
			seen[l] = true
			uniq = append(uniq, l)
		}
	}
	sort.Ints(uniq)

	var rows []model.IndicatorRow
	for _, level := range uniq {
		for _, country := range ix.Countries() {
			for _, u := range ix.UnitsAt(country, level) {
				k := unitKey{level: level, country: country, admin: u.Code}
				row := model.IndicatorRow{
					CountryISO3: country,
					AdminCode:   u.Code,
					AdminName:   u.Name,
					Level:       level,
				}
				if set := orgs[k]; len(set) > 0 {
					row.OrgCount = len(set)
					row.SectorCount = len(sectors[k])
					row.Sectors = sortedKeys(sectors[k])
				} else {
					row.Gap = true
				}
				rows = append(rows, row)
			}
		}
	}
	return rows
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
