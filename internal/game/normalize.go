package game

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrMissingField marks a record or descriptor that lacks a key the
// normalizer or image selector cannot do without.
var ErrMissingField = errors.New("game: missing field")

const maxPaddedGenres = 3

// themeGenres are the themes promoted to genres when a record has fewer
// than maxPaddedGenres genres, in promotion order.
var themeGenres = []string{"Action", "Horror", "Stealth"}

type genreRule struct {
	when []string
	then []string
}

// genreRules is evaluated top to bottom and the first rule whose whole set
// is contained in the genre list replaces that list. Order matters.
var genreRules = []genreRule{
	{
		when: []string{"Racing", "Arcade"},
		then: []string{"Racing", "Arcade"},
	},
	{
		when: []string{"Platform", "Hack and slash/Beat 'em up", "Action"},
		then: []string{"Hack and slash/Beat 'em up", "Platform"},
	},
	{
		when: []string{"Fighting", "Action"},
		then: []string{"Fighting"},
	},
	{
		when: []string{"Puzzle", "Action"},
		then: []string{"Action", "Puzzle"},
	},
	{
		when: []string{"Puzzle", "Shooter"},
		then: []string{"Shooter", "Puzzle"},
	},
	{
		when: []string{"Strategy", "Hack and slash/Beat 'em up", "Adventure"},
		then: []string{"Hack and slash/Beat 'em up"},
	},
	{
		when: []string{"Shooter", "Hack and slash/Beat 'em up", "Action"},
		then: []string{"Shooter", "Action", "Hack and slash/Beat 'em up"},
	},
}

// CleanGenres pads genres with the Action/Horror/Stealth themes while there
// are fewer than three, then applies the first matching special-case rule.
// Neither argument is modified.
func CleanGenres(genres, themes []string) []string {
	out := make([]string, 0, len(genres)+len(themeGenres))
	out = append(out, genres...)

	for _, candidate := range themeGenres {
		if len(out) >= maxPaddedGenres {
			break
		}
		if contains(themes, candidate) && !contains(out, candidate) {
			out = append(out, candidate)
		}
	}

	for _, rule := range genreRules {
		if containsAll(out, rule.when) {
			return append([]string(nil), rule.then...)
		}
	}
	return out
}

// Normalize builds the persisted form of an admitted record. Optional
// fields are carried only when non-empty; Genres and Developers are always
// non-nil.
func Normalize(raw RawRecord) (CleanRecord, error) {
	if strings.TrimSpace(raw.Name) == "" {
		return CleanRecord{}, errors.Wrapf(ErrMissingField, "normalize id %d: name", raw.ID)
	}
	clean := CleanRecord{
		Name:        raw.Name,
		Year:        raw.Year,
		Summary:     raw.Summary,
		Themes:      names(raw.Themes),
		Platforms:   names(raw.Platforms),
		Developers:  []string{},
		Screenshots: cloneImages(raw.Screenshots),
		Artworks:    cloneImages(raw.Artworks),
	}
	if raw.Cover != nil && *raw.Cover != (Image{}) {
		cover := *raw.Cover
		clean.Cover = &cover
	}
	clean.Genres = CleanGenres(names(raw.Genres), clean.Themes)

	for i, ic := range raw.InvolvedCompanies {
		switch {
		case ic.Developer == nil:
			return CleanRecord{}, errors.Wrapf(ErrMissingField, "normalize %q: involved_companies[%d].developer", raw.Name, i)
		case ic.Publisher == nil:
			return CleanRecord{}, errors.Wrapf(ErrMissingField, "normalize %q: involved_companies[%d].publisher", raw.Name, i)
		case ic.Company == nil || ic.Company.Name == "":
			return CleanRecord{}, errors.Wrapf(ErrMissingField, "normalize %q: involved_companies[%d].company.name", raw.Name, i)
		}
		if *ic.Developer {
			clean.Developers = append(clean.Developers, ic.Company.Name)
		}
		if *ic.Publisher {
			clean.Publisher = ic.Company.Name
		}
	}

	for i, site := range raw.Websites {
		if site.Category == nil {
			return CleanRecord{}, errors.Wrapf(ErrMissingField, "normalize %q: websites[%d].category", raw.Name, i)
		}
		if *site.Category != WebsiteWiki {
			continue
		}
		if site.URL == "" {
			return CleanRecord{}, errors.Wrapf(ErrMissingField, "normalize %q: websites[%d].url", raw.Name, i)
		}
		clean.WikiURL = site.URL
		break
	}

	return clean, nil
}

func names(items []Named) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

func cloneImages(images []Image) []Image {
	if len(images) == 0 {
		return nil
	}
	return append([]Image(nil), images...)
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func containsAll(values, want []string) bool {
	for _, w := range want {
		if !contains(values, w) {
			return false
		}
	}
	return true
}
