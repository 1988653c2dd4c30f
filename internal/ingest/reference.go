package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/threewkit/threew/internal/model"
)

// Reference hierarchy files carry these headers (case-insensitive):
// country_iso3, code, name, level, parent_code, aliases. Aliases are
// pipe-separated within the cell.
var referenceRequired = []string{"country_iso3", "code", "name", "level"}

// ReadReference loads the reference administrative hierarchy from a CSV
// or XLSX file. Structural validation (duplicate codes, orphan parents)
// is the admin Index's job; this only enforces the file contract.
func ReadReference(path string) ([]model.AdminUnit, error) {
	rows, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("reference file %s is empty", path)
	}
	idx := headerIndex(rows[0])
	for _, h := range referenceRequired {
		if _, ok := idx[h]; !ok {
			return nil, fmt.Errorf("reference file %s: missing column %q", path, h)
		}
	}
	country := idx["country_iso3"]
	code := idx["code"]
	name := idx["name"]
	level := idx["level"]
	parent := column(idx, "parent_code")
	aliases := column(idx, "aliases")

	var units []model.AdminUnit
	for n, row := range rows[1:] {
		if cell(row, code) == "" && cell(row, name) == "" {
			continue // Blank padding row
		}
		lvl, err := strconv.Atoi(cell(row, level))
		if err != nil {
			return nil, fmt.Errorf("reference file %s row %d: bad level %q", path, n+2, cell(row, level))
		}
		u := model.AdminUnit{
			Code:        cell(row, code),
			Name:        cell(row, name),
			Level:       lvl,
			ParentCode:  cell(row, parent),
			CountryISO3: cell(row, country),
		}
		if raw := cell(row, aliases); raw != "" {
			for _, a := range strings.Split(raw, "|") {
				if a = strings.TrimSpace(a); a != "" {
					u.Aliases = append(u.Aliases, a)
				}
			}
		}
		units = append(units, u)
	}
	return units, nil
}
