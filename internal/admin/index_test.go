package admin

import (
	"errors"
	"testing"

	"github.com/threewkit/threew/internal/model"
)

func testUnits() []model.AdminUnit {
	return []model.AdminUnit{
		{Code: "ABC", Name: "Testland", Level: 0, CountryISO3: "ABC"},
		{Code: "AB01", Name: "North", Level: 1, ParentCode: "ABC", CountryISO3: "ABC"},
		{Code: "AB02", Name: "South", Level: 1, ParentCode: "ABC", CountryISO3: "ABC", Aliases: []string{"Southern Province"}},
		{Code: "AB0101", Name: "Northtown", Level: 2, ParentCode: "AB01", CountryISO3: "ABC"},
		{Code: "AB0201", Name: "Southtown", Level: 2, ParentCode: "AB02", CountryISO3: "ABC"},
	}
}

func TestBuild_Valid(t *testing.T) {
	ix, err := Build(testUnits())
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if got := ix.Countries(); len(got) != 1 || got[0] != "ABC" {
		t.Errorf("expected countries [ABC], got %v", got)
	}
}

func TestBuild_DuplicateCode(t *testing.T) {
	units := testUnits()
	units = append(units, model.AdminUnit{Code: "AB01", Name: "North Again", Level: 1, ParentCode: "ABC", CountryISO3: "ABC"})
	_, err := Build(units)
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestBuild_MissingParent(t *testing.T) {
	units := testUnits()
	units = append(units, model.AdminUnit{Code: "AB0301", Name: "Orphantown", Level: 2, ParentCode: "AB03", CountryISO3: "ABC"})
	_, err := Build(units)
	if !errors.Is(err, ErrMissingParent) {
		t.Fatalf("expected ErrMissingParent, got %v", err)
	}
}

func TestBuild_NoParent(t *testing.T) {
	_, err := Build([]model.AdminUnit{
		{Code: "ABC", Name: "Testland", Level: 0, CountryISO3: "ABC"},
		{Code: "AB01", Name: "North", Level: 1, CountryISO3: "ABC"},
	})
	if !errors.Is(err, ErrNoParent) {
		t.Fatalf("expected ErrNoParent, got %v", err)
	}
}

func TestBuild_ParentAtWrongLevel(t *testing.T) {
	// A level-2 unit whose parent is the country, not an admin1.
	_, err := Build([]model.AdminUnit{
		{Code: "ABC", Name: "Testland", Level: 0, CountryISO3: "ABC"},
		{Code: "AB0101", Name: "Northtown", Level: 2, ParentCode: "ABC", CountryISO3: "ABC"},
	})
	if !errors.Is(err, ErrMissingParent) {
		t.Fatalf("expected ErrMissingParent, got %v", err)
	}
}

func TestLookupByCode_CaseInsensitive(t *testing.T) {
	ix, err := Build(testUnits())
	if err != nil {
		t.Fatal(err)
	}
	u, ok := ix.LookupByCode("abc", " ab01 ")
	if !ok {
		t.Fatal("expected lookup to succeed")
	}
	if u.Name != "North" {
		t.Errorf("expected North, got %s", u.Name)
	}
}

func TestLookupByName(t *testing.T) {
	ix, err := Build(testUnits())
	if err != nil {
		t.Fatal(err)
	}

	got := ix.LookupByName("ABC", 1, "  NORTH ")
	if len(got) != 1 || got[0].Code != "AB01" {
		t.Fatalf("expected [AB01], got %v", got)
	}

	// Alias matches are included in the combined lookup.
	got = ix.LookupByName("ABC", 1, "southern province")
	if len(got) != 1 || got[0].Code != "AB02" {
		t.Fatalf("expected alias match [AB02], got %v", got)
	}

	// Wrong level finds nothing.
	if got = ix.LookupByName("ABC", 2, "North"); len(got) != 0 {
		t.Errorf("expected no level-2 match for North, got %v", got)
	}
}

func TestAncestorAt(t *testing.T) {
	ix, err := Build(testUnits())
	if err != nil {
		t.Fatal(err)
	}

	anc, ok := ix.AncestorAt("ABC", "AB0101", 1)
	if !ok || anc.Code != "AB01" {
		t.Fatalf("expected AB01, got %v ok=%v", anc, ok)
	}
	anc, ok = ix.AncestorAt("ABC", "AB0101", 0)
	if !ok || anc.Code != "ABC" {
		t.Fatalf("expected ABC, got %v ok=%v", anc, ok)
	}
	// Own level returns the unit itself.
	anc, ok = ix.AncestorAt("ABC", "AB0101", 2)
	if !ok || anc.Code != "AB0101" {
		t.Fatalf("expected AB0101, got %v ok=%v", anc, ok)
	}
	// Cannot descend.
	if _, ok = ix.AncestorAt("ABC", "AB01", 2); ok {
		t.Error("expected no ancestor below the unit's own level")
	}
}

func TestUnitsAt_SortedByCode(t *testing.T) {
	ix, err := Build(testUnits())
	if err != nil {
		t.Fatal(err)
	}
	units := ix.UnitsAt("ABC", 2)
	if len(units) != 2 || units[0].Code != "AB0101" || units[1].Code != "AB0201" {
		t.Fatalf("expected sorted level-2 units, got %v", units)
	}
}

func TestLooksLikeCode(t *testing.T) {
	for s, want := range map[string]bool{
		"AB01":    true,
		"AFG01":   true,
		"ab0101":  true,
		"North":   false,
		"A1B2":    false,
		"12345":   false,
		"":        false,
		" CD5102": true,
	} {
		if got := LooksLikeCode(s); got != want {
			t.Errorf("LooksLikeCode(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestNormalizedNames(t *testing.T) {
	ix, err := Build(testUnits())
	if err != nil {
		t.Fatal(err)
	}
	names := ix.NormalizedNames("ABC", 1)
	want := []string{"north", "south", "southern province"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
