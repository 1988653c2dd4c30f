package cli

import (
	"testing"

	"github.com/threewkit/threew/internal/model"
)

func TestCountryForFile(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Columns = map[string]model.ColumnsConfig{
		"AFG": {OrgName: "Org Name", Sector: "Cluster"},
		"SDN": {OrgName: "organisation", Sector: "secteur"},
	}

	tests := []struct {
		name        string
		path        string
		countries   []string
		defaultISO3 string
		want        string
	}{
		{"filename prefix picks its mapping", "data/afg_3w.xlsx", nil, "", "AFG"},
		{"prefix wins over the country filter", "sdn_3w.csv", []string{"AFG"}, "", "SDN"},
		{"unconfigured prefix falls through", "eth_3w.csv", []string{"ETH"}, "", "ETH"},
		{"single-country filter", "sources.csv", []string{"AFG"}, "", "AFG"},
		{"multi-country filter is no layout hint", "sources.csv", []string{"AFG", "SDN"}, "", "default"},
		{"default ISO3", "sources.csv", nil, "SDN", "SDN"},
		{"nothing to go on", "sources.csv", nil, "", "default"},
		{"longer word is not a prefix", "afghanistan_3w.csv", nil, "", "default"},
		{"digit after prefix is not a separator", "afg2_3w.csv", nil, "", "default"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg.Countries = tc.countries
			if got := countryForFile(cfg, tc.path, tc.defaultISO3); got != tc.want {
				t.Errorf("countryForFile(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func TestISO3Prefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"afg_3w.xlsx", "AFG"},
		{"AFG-3w.csv", "AFG"},
		{"sdn.csv", "SDN"},
		{"afg", "AFG"},
		{"af_3w.csv", ""},
		{"3w_afg.csv", ""},
		{"afgh_3w.csv", ""},
		{"afg2.csv", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := iso3Prefix(tc.in); got != tc.want {
			t.Errorf("iso3Prefix(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
