// Package announce turns clean game records into post text.
package announce

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/you/onthisday/internal/game"
)

const (
	// MaxLength is the hard character cap of a post.
	MaxLength = 180
	// LinkReserve is what the platform charges for any link after shortening.
	LinkReserve = 23

	maxDevelopers          = 2
	maxGenres              = 3
	manyPlatformsThreshold = 8
)

type Renderer struct {
	locale Locale
	now    func() time.Time
}

// New returns a Renderer for locale. now defaults to time.Now.
func New(locale Locale, now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{locale: locale.clone(), now: now}
}

// Render builds the announcement for rec: a headline, a blank line, the
// info block, and a wiki link when it fits under MaxLength.
func (r *Renderer) Render(rec game.CleanRecord) string {
	years := r.now().Year() - rec.Year
	headline := fmt.Sprintf(r.locale.Headline, rec.Name, years)

	info := strings.Join([]string{
		labelled(r.locale.DeveloperLabel, strings.Join(head(rec.Developers, maxDevelopers), ", ")),
		labelled(r.locale.PublisherLabel, rec.Publisher),
		labelled(r.locale.GenreLabel, strings.Join(r.genreLabels(rec.Genres), ", ")),
		r.platformLine(rec.Platforms),
	}, "\n")
	info = collapseBlankLines(info)

	text := headline
	if info != "" {
		text += "\n\n" + info
	}
	if rec.WikiURL == "" {
		return text
	}
	withLink := text + "\n" + r.locale.WikiLabel + ": "
	if utf8.RuneCountInString(withLink)+LinkReserve > MaxLength {
		return text
	}
	return withLink + rec.WikiURL
}

func (r *Renderer) genreLabels(genres []string) []string {
	var out []string
	for _, g := range head(genres, maxGenres) {
		if label := r.locale.GenreLabels[g]; label != "" {
			out = append(out, label)
		}
	}
	return out
}

func (r *Renderer) platformLine(platforms []string) string {
	seen := make(map[string]struct{}, len(platforms))
	labels := make([]string, 0, len(platforms))
	for _, p := range platforms {
		label := r.locale.PlatformLabels[p]
		if label == "" {
			label = p
		}
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	if len(labels) >= manyPlatformsThreshold {
		return labelled(r.locale.PlatformLabel, r.locale.ManyPlatforms)
	}
	sort.Strings(labels)
	return labelled(r.locale.PlatformLabel, strings.Join(labels, ", "))
}

func labelled(label, value string) string {
	if value == "" {
		return ""
	}
	return label + ": " + value
}

func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n") {
		s = strings.ReplaceAll(s, "\n\n", "\n")
	}
	return strings.Trim(s, "\n")
}

func head(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
