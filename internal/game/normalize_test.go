package game

import (
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"testing"
)

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

func TestCleanGenres(t *testing.T) {
	cases := []struct {
		name   string
		genres []string
		themes []string
		want   []string
	}{
		{"pads from themes", []string{"G1", "G2"}, []string{"Stealth"}, []string{"G1", "G2", "Stealth"}},
		{"no themes", []string{"G1", "G2"}, nil, []string{"G1", "G2"}},
		{"padding order", []string{"G1"}, []string{"Stealth", "Horror", "Action"}, []string{"G1", "Action", "Horror"}},
		{"no padding past three", []string{"G1", "G2", "G3"}, []string{"Action"}, []string{"G1", "G2", "G3"}},
		{"skips existing", []string{"Action"}, []string{"Action", "Horror"}, []string{"Action", "Horror"}},
		{"ignores other themes", []string{"G1"}, []string{"Fantasy", "Sandbox"}, []string{"G1"}},
		{"platform brawler", []string{"Platform", "Hack and slash/Beat 'em up", "Action"}, nil, []string{"Hack and slash/Beat 'em up", "Platform"}},
		{"fighting", []string{"Action", "Fighting"}, nil, []string{"Fighting"}},
		{"fighting via theme", []string{"Fighting"}, []string{"Action"}, []string{"Fighting"}},
		{"racing arcade", []string{"Arcade", "Racing", "Sport"}, nil, []string{"Racing", "Arcade"}},
		{"puzzle action", []string{"Puzzle"}, []string{"Action"}, []string{"Action", "Puzzle"}},
		{"puzzle shooter", []string{"Puzzle", "Shooter"}, nil, []string{"Shooter", "Puzzle"}},
		{"strategy brawler", []string{"Strategy", "Adventure", "Hack and slash/Beat 'em up"}, nil, []string{"Hack and slash/Beat 'em up"}},
		{"shooter brawler", []string{"Shooter", "Hack and slash/Beat 'em up"}, []string{"Action"}, []string{"Shooter", "Action", "Hack and slash/Beat 'em up"}},
		{"first match wins", []string{"Puzzle", "Action", "Fighting"}, nil, []string{"Fighting"}},
		{"empty", nil, nil, []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CleanGenres(tc.genres, tc.themes)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("CleanGenres(%q, %q) = %q; want %q", tc.genres, tc.themes, got, tc.want)
			}
		})
	}
}

func TestCleanGenresLeavesInputAlone(t *testing.T) {
	genres := make([]string, 2, 8)
	genres[0], genres[1] = "G1", "G2"
	_ = CleanGenres(genres, []string{"Horror"})
	if got := genres[:cap(genres)][2]; got != "" {
		t.Fatalf("input backing array was written: %q", got)
	}
}

func goodRawRecord() RawRecord {
	return RawRecord{
		Name:   "some_name",
		Genres: []Named{{Name: "some_genre"}},
		InvolvedCompanies: []InvolvedCompany{
			{Developer: boolPtr(true), Publisher: boolPtr(false), Company: &Company{Name: "some_dev"}},
			{Developer: boolPtr(false), Publisher: boolPtr(true), Company: &Company{Name: "some_pub"}},
		},
		Platforms: []Named{{Name: "p1"}, {Name: "p2"}},
		Themes:    []Named{},
	}
}

func TestNormalizeGoodRecord(t *testing.T) {
	got, err := Normalize(goodRawRecord())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := CleanRecord{
		Name:       "some_name",
		Genres:     []string{"some_genre"},
		Developers: []string{"some_dev"},
		Publisher:  "some_pub",
		Platforms:  []string{"p1", "p2"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Normalize mismatch\n got: %#v\nwant: %#v", got, want)
	}

	data, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	wantKeys := []string{"developers", "genres", "name", "platforms", "publisher"}
	if !reflect.DeepEqual(keys, wantKeys) {
		t.Fatalf("document keys = %v; want %v", keys, wantKeys)
	}
}

func TestNormalizeIsPure(t *testing.T) {
	raw := goodRawRecord()
	raw.Genres = []Named{{Name: "Fighting"}}
	raw.Themes = []Named{{Name: "Action"}}
	raw.Cover = &Image{URL: "//img/t_thumb/a.jpg"}
	raw.Screenshots = []Image{{URL: "//img/s1.jpg"}}

	first, err := Normalize(raw)
	if err != nil {
		t.Fatalf("first Normalize: %v", err)
	}
	second, err := Normalize(raw)
	if err != nil {
		t.Fatalf("second Normalize: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Normalize is not deterministic:\n%#v\n%#v", first, second)
	}

	first.Screenshots[0].URL = "changed"
	first.Cover.URL = "changed"
	if raw.Screenshots[0].URL != "//img/s1.jpg" || raw.Cover.URL != "//img/t_thumb/a.jpg" {
		t.Fatalf("clean record shares image storage with input")
	}
	if raw.Genres[0].Name != "Fighting" || len(raw.Genres) != 1 {
		t.Fatalf("input genres modified: %+v", raw.Genres)
	}
}

func TestNormalizeOptionalFields(t *testing.T) {
	raw := RawRecord{
		Name:    "Half-Life",
		Year:    1998,
		Summary: "Crowbar time.",
		Cover:   &Image{},
		Websites: []Website{
			{Category: intPtr(1), URL: "https://official"},
			{Category: intPtr(3), URL: "https://wiki/first"},
			{Category: intPtr(3), URL: "https://wiki/second"},
			{URL: "never inspected"},
		},
		InvolvedCompanies: []InvolvedCompany{
			{Developer: boolPtr(true), Publisher: boolPtr(true), Company: &Company{Name: "Valve"}},
			{Developer: boolPtr(false), Publisher: boolPtr(true), Company: &Company{Name: "Sierra"}},
			{Developer: boolPtr(true), Publisher: boolPtr(false), Company: &Company{Name: "Gearbox"}},
		},
	}

	got, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.WikiURL != "https://wiki/first" {
		t.Fatalf("expected first wiki url, got %q", got.WikiURL)
	}
	if got.Publisher != "Sierra" {
		t.Fatalf("expected last publisher to win, got %q", got.Publisher)
	}
	if !reflect.DeepEqual(got.Developers, []string{"Valve", "Gearbox"}) {
		t.Fatalf("unexpected developers %q", got.Developers)
	}
	if got.Cover != nil {
		t.Fatalf("empty cover descriptor should be dropped")
	}
	if got.Year != 1998 || got.Summary != "Crowbar time." {
		t.Fatalf("year/summary not carried: %+v", got)
	}
	if got.Platforms != nil || got.Themes != nil {
		t.Fatalf("absent lists should stay absent: %+v", got)
	}
	if got.Genres == nil {
		t.Fatalf("genres must always be present")
	}
}

func TestNormalizeEmptyRecordHasDevelopers(t *testing.T) {
	got, err := Normalize(RawRecord{Name: "x"})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.Developers == nil {
		t.Fatalf("developers must be a list, never absent")
	}
	data, _ := json.Marshal(got)
	if string(data) != `{"name":"x","genres":[],"developers":[]}` {
		t.Fatalf("unexpected document %s", data)
	}
}

func TestNormalizeMissingFields(t *testing.T) {
	cases := []struct {
		name string
		rec  RawRecord
	}{
		{"developer flag", RawRecord{Name: "a", InvolvedCompanies: []InvolvedCompany{{Publisher: boolPtr(true), Company: &Company{Name: "c"}}}}},
		{"publisher flag", RawRecord{Name: "a", InvolvedCompanies: []InvolvedCompany{{Developer: boolPtr(true), Company: &Company{Name: "c"}}}}},
		{"company", RawRecord{Name: "a", InvolvedCompanies: []InvolvedCompany{{Developer: boolPtr(true), Publisher: boolPtr(true)}}}},
		{"website category", RawRecord{Name: "a", Websites: []Website{{URL: "https://x"}}}},
		{"wiki url", RawRecord{Name: "a", Websites: []Website{{Category: intPtr(WebsiteWiki)}}}},
		{"name", RawRecord{ID: 77, Genres: []Named{{Name: "Adventure"}}}},
		{"blank name", RawRecord{ID: 78, Name: "  "}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.rec)
			if !errors.Is(err, ErrMissingField) {
				t.Fatalf("expected ErrMissingField, got %v", err)
			}
		})
	}
}
