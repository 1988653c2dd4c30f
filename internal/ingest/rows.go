package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/threewkit/threew/internal/model"
)

// ReadRows loads one country submission into typed SourceRows.
// defaultCountry fills in when the file has no country column; cols names
// the file's headers (every country lays its sheet out differently).
//
// The deepest admin field present decides the row's expected level: an
// admin2 value makes a level-2 row with the admin1 value as parent hint,
// an admin1 value alone makes a level-1 row, and neither makes a
// country-level row. Code columns win over name columns at the same
// level, matching how submissions mix p-codes and names.
func ReadRows(path, defaultCountry string, cols model.ColumnsConfig) ([]model.SourceRow, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if len(table) < 2 {
		return nil, fmt.Errorf("source file %s has no data rows", path)
	}
	idx := headerIndex(table[0])

	country := column(idx, cols.Country)
	adm1Code := column(idx, cols.Adm1Code)
	adm1Name := column(idx, cols.Adm1Name)
	adm2Code := column(idx, cols.Adm2Code)
	adm2Name := column(idx, cols.Adm2Name)
	orgName := column(idx, cols.OrgName)
	orgAcronym := column(idx, cols.OrgAcronym)
	orgType := column(idx, cols.OrgType)
	sector := column(idx, cols.Sector)

	if orgName < 0 && orgAcronym < 0 {
		return nil, fmt.Errorf("source file %s: no organization column (%q/%q)", path, cols.OrgName, cols.OrgAcronym)
	}
	if sector < 0 {
		return nil, fmt.Errorf("source file %s: no sector column (%q)", path, cols.Sector)
	}

	file := filepath.Base(path)
	var out []model.SourceRow
	for n, row := range table[1:] {
		// Skip the HXL hashtag row some submissions carry under the header.
		if first := cell(row, 0); strings.HasPrefix(first, "#") {
			continue
		}
		iso3 := cell(row, country)
		if iso3 == "" {
			iso3 = defaultCountry
		}
		sr := model.SourceRow{
			CountryISO3: strings.ToUpper(iso3),
			OrgName:     cell(row, orgName),
			OrgAcronym:  cell(row, orgAcronym),
			OrgType:     cell(row, orgType),
			Sector:      cell(row, sector),
			Provenance:  model.Provenance{SourceFile: file, RowNumber: n + 2},
		}
		if sr.OrgName == "" && sr.OrgAcronym == "" && sr.Sector == "" {
			continue // Blank padding row
		}

		a1 := firstNonEmpty(cell(row, adm1Code), cell(row, adm1Name))
		a2 := firstNonEmpty(cell(row, adm2Code), cell(row, adm2Name))
		switch {
		case a2 != "":
			sr.Location = a2
			sr.AdminLevel = 2
			sr.ParentHint = a1
		case a1 != "":
			sr.Location = a1
			sr.AdminLevel = 1
		default:
			sr.Location = sr.CountryISO3
			sr.AdminLevel = 0
		}
		out = append(out, sr)
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
