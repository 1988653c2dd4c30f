package aggregate

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/threewkit/threew/internal/admin"
	"github.com/threewkit/threew/internal/model"
)

func testIndex(t *testing.T) *admin.Index {
	t.Helper()
	ix, err := admin.Build([]model.AdminUnit{
		{Code: "ABC", Name: "Testland", Level: 0, CountryISO3: "ABC"},
		{Code: "AB01", Name: "North", Level: 1, ParentCode: "ABC", CountryISO3: "ABC"},
		{Code: "AB02", Name: "South", Level: 1, ParentCode: "ABC", CountryISO3: "ABC"},
		{Code: "AB0101", Name: "Northtown", Level: 2, ParentCode: "AB01", CountryISO3: "ABC"},
		{Code: "AB0102", Name: "Northport", Level: 2, ParentCode: "AB01", CountryISO3: "ABC"},
		{Code: "AB0201", Name: "Southtown", Level: 2, ParentCode: "AB02", CountryISO3: "ABC"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return ix
}

func resolvedIn(country, admin, orgID, sector, file string, rowNum int) model.ResolvedRow {
	return model.ResolvedRow{
		Row: model.SourceRow{
			CountryISO3: country,
			Provenance:  model.Provenance{SourceFile: file, RowNumber: rowNum},
		},
		Resolution: model.Resolution{AdminCode: admin, Confidence: model.ConfidenceExact},
		Org:        model.OrgRef{ID: orgID, CanonicalName: orgID},
		SectorCode: sector,
	}
}

func resolved(admin, orgID, sector, file string, rowNum int) model.ResolvedRow {
	return resolvedIn("ABC", admin, orgID, sector, file, rowNum)
}

func unresolvedRow(file string, rowNum int) model.ResolvedRow {
	return model.ResolvedRow{
		Row: model.SourceRow{
			CountryISO3: "ABC",
			Provenance:  model.Provenance{SourceFile: file, RowNumber: rowNum},
		},
		Resolution: model.Resolution{Confidence: model.ConfidenceUnresolved},
		Org:        model.OrgRef{ID: "org-a"},
		SectorCode: "HEA",
	}
}

func TestAggregate_DeduplicatesClaims(t *testing.T) {
	a := New(testIndex(t), []int{1})
	// Same org/sector/admin from two different source files: one claim,
	// both provenances retained.
	rows := []model.ResolvedRow{
		resolved("AB0101", "org-x", "HEA", "fileA.csv", 2),
		resolved("AB0101", "org-x", "HEA", "fileB.xlsx", 9),
	}
	res := a.Aggregate(rows)

	if len(res.Claims) != 1 {
		t.Fatalf("expected 1 claim, got %d", len(res.Claims))
	}
	for _, provs := range res.Claims {
		if len(provs) != 2 {
			t.Fatalf("expected 2 provenance entries, got %v", provs)
		}
	}
	if len(res.Records) != 1 || res.Records[0].OrgCount != 1 {
		t.Fatalf("expected one record with org count 1, got %+v", res.Records)
	}
}

func TestAggregate_DedupIdempotence(t *testing.T) {
	a := New(testIndex(t), []int{0, 1, 2})
	rows := []model.ResolvedRow{
		resolved("AB0101", "org-x", "HEA", "f", 1),
		resolved("AB0102", "org-y", "HEA", "f", 2),
		resolved("AB0201", "org-x", "EDU", "f", 3),
	}
	doubled := append(append([]model.ResolvedRow{}, rows...), rows...)

	once := a.Aggregate(rows)
	twice := a.Aggregate(doubled)
	if !reflect.DeepEqual(once.Records, twice.Records) {
		t.Fatalf("duplicated input changed records:\n%+v\nvs\n%+v", once.Records, twice.Records)
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	a := New(testIndex(t), []int{0, 1, 2})
	rows := []model.ResolvedRow{
		resolved("AB0101", "org-x", "HEA", "f", 1),
		resolved("AB0102", "org-y", "HEA", "f", 2),
		resolved("AB0201", "org-z", "EDU", "f", 3),
		resolved("AB01", "org-x", "EDU", "f", 4),
	}
	want := a.Aggregate(rows).Records

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffled := append([]model.ResolvedRow{}, rows...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := a.Aggregate(shuffled).Records
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("row order changed records:\n%+v\nvs\n%+v", got, want)
		}
	}
}

func TestAggregate_RollUpLevels(t *testing.T) {
	a := New(testIndex(t), []int{0, 1, 2})
	rows := []model.ResolvedRow{
		resolved("AB0101", "org-x", "HEA", "f", 1),
		resolved("AB0102", "org-y", "HEA", "f", 2),
		resolved("AB0201", "org-x", "HEA", "f", 3),
	}
	res := a.Aggregate(rows)

	find := func(level int, admin string) *model.AggregateRecord {
		for i := range res.Records {
			r := &res.Records[i]
			if r.Level == level && r.AdminCode == admin && r.SectorCode == "HEA" {
				return r
			}
		}
		return nil
	}

	if r := find(0, "ABC"); r == nil || r.OrgCount != 2 {
		t.Errorf("expected 2 orgs at national level, got %+v", r)
	}
	if r := find(1, "AB01"); r == nil || r.OrgCount != 2 {
		t.Errorf("expected 2 orgs rolled up to AB01, got %+v", r)
	}
	if r := find(1, "AB02"); r == nil || r.OrgCount != 1 {
		t.Errorf("expected 1 org at AB02, got %+v", r)
	}
	if r := find(2, "AB0101"); r == nil || r.OrgCount != 1 {
		t.Errorf("expected 1 org at AB0101, got %+v", r)
	}
}

func TestAggregate_Admin1ClaimAbsentFromLevel2(t *testing.T) {
	a := New(testIndex(t), []int{1, 2})
	res := a.Aggregate([]model.ResolvedRow{resolved("AB01", "org-x", "HEA", "f", 1)})
	for _, r := range res.Records {
		if r.Level == 2 {
			t.Fatalf("admin1-level claim must not appear at level 2: %+v", r)
		}
	}
}

func TestAggregate_SameCodeAcrossCountries(t *testing.T) {
	// Admin codes are only unique within a country: two countries can
	// both carry ZZ01 and the Index accepts that. Their claims must stay
	// apart and neither country may lose its presence.
	ix, err := admin.Build([]model.AdminUnit{
		{Code: "AAA", Name: "Alphaland", Level: 0, CountryISO3: "AAA"},
		{Code: "BBB", Name: "Betaland", Level: 0, CountryISO3: "BBB"},
		{Code: "ZZ01", Name: "Zone One", Level: 1, ParentCode: "AAA", CountryISO3: "AAA"},
		{Code: "ZZ01", Name: "Zone One", Level: 1, ParentCode: "BBB", CountryISO3: "BBB"},
	})
	if err != nil {
		t.Fatal(err)
	}
	a := New(ix, []int{0, 1})
	res := a.Aggregate([]model.ResolvedRow{
		resolvedIn("AAA", "ZZ01", "org-x", "HEA", "f", 1),
		resolvedIn("BBB", "ZZ01", "org-x", "HEA", "f", 2),
	})

	if len(res.Claims) != 2 {
		t.Fatalf("claims conflated across countries: got %d, want 2", len(res.Claims))
	}
	seen := map[string]int{}
	for _, r := range res.Records {
		seen[r.CountryISO3]++
		if r.OrgCount != 1 {
			t.Errorf("expected 1 org in %s %s, got %d", r.CountryISO3, r.AdminCode, r.OrgCount)
		}
	}
	// One country-level and one admin1 record per country.
	if seen["AAA"] != 2 || seen["BBB"] != 2 {
		t.Fatalf("expected 2 records per country, got %v: %+v", seen, res.Records)
	}

	// Coverage keeps the countries apart too: no false gaps.
	for _, row := range Coverage(res, ix, []int{0, 1}) {
		if row.Gap {
			t.Errorf("false gap at %s %s", row.CountryISO3, row.AdminCode)
		}
	}
}

func TestAggregate_UnresolvedKeptAside(t *testing.T) {
	a := New(testIndex(t), []int{1})
	res := a.Aggregate([]model.ResolvedRow{
		resolved("AB0101", "org-x", "HEA", "f", 1),
		unresolvedRow("f", 2),
	})
	if len(res.Unresolved) != 1 {
		t.Fatalf("expected 1 unresolved row, got %d", len(res.Unresolved))
	}
	if len(res.Claims) != 1 {
		t.Fatalf("unresolved row leaked into claims: %d", len(res.Claims))
	}
}

func TestAggregate_UnknownAdminRejected(t *testing.T) {
	a := New(testIndex(t), []int{1})
	res := a.Aggregate([]model.ResolvedRow{
		resolved("ZZ99", "org-x", "HEA", "f", 1),
		resolved("AB0101", "org-y", "HEA", "f", 2),
	})
	if len(res.Rejected) != 1 || res.Rejected[0].Resolution.AdminCode != "ZZ99" {
		t.Fatalf("expected ZZ99 rejected, got %+v", res.Rejected)
	}
	if len(res.Claims) != 1 {
		t.Fatalf("expected the valid row to survive, got %d claims", len(res.Claims))
	}
}

func TestCoverage_Complete(t *testing.T) {
	ix := testIndex(t)
	a := New(ix, []int{1, 2})
	res := a.Aggregate([]model.ResolvedRow{
		resolved("AB0101", "org-x", "HEA", "f", 1),
		resolved("AB0101", "org-x", "EDU", "f", 2),
	})

	rows := Coverage(res, ix, []int{1, 2})

	// Every unit at each requested level appears exactly once.
	counts := map[string]int{}
	for _, r := range rows {
		counts[r.AdminCode]++
	}
	for _, code := range []string{"AB01", "AB02", "AB0101", "AB0102", "AB0201"} {
		if counts[code] != 1 {
			t.Errorf("expected %s exactly once, got %d", code, counts[code])
		}
	}

	byCode := map[string]model.IndicatorRow{}
	for _, r := range rows {
		byCode[r.AdminCode] = r
	}

	if r := byCode["AB01"]; r.OrgCount != 1 || r.SectorCount != 2 || r.Gap {
		t.Errorf("unexpected AB01 indicator: %+v", r)
	}
	// Zero-presence units are emitted as explicit gaps.
	for _, code := range []string{"AB02", "AB0102", "AB0201"} {
		if r := byCode[code]; !r.Gap || r.OrgCount != 0 {
			t.Errorf("expected gap row for %s, got %+v", code, r)
		}
	}
}

func TestCoverage_EmptyResult(t *testing.T) {
	ix := testIndex(t)
	a := New(ix, []int{1})
	rows := Coverage(a.Aggregate(nil), ix, []int{1})
	if len(rows) != 2 {
		t.Fatalf("expected 2 gap rows, got %d", len(rows))
	}
	for _, r := range rows {
		if !r.Gap {
			t.Errorf("expected gap, got %+v", r)
		}
	}
}
