package igdb

import (
	"fmt"
	"strings"
)

// eroticTheme is excluded from every query.
const eroticTheme = 42

var queryFields = []string{
	"id",
	"category",
	"name",
	"parent_game",
	"first_release_date",
	"total_rating_count",
	"total_rating",
	"platforms.name",
	"summary",
	"cover.url",
	"involved_companies.company.name",
	"involved_companies.developer",
	"involved_companies.publisher",
	"genres.name",
	"websites.category",
	"websites.url",
	"artworks.url",
	"screenshots.url",
	"themes.name",
}

// QueryBody renders the Apicalypse request for w: released inside the
// window, not erotic, and either well rated with enough votes or very
// widely rated.
func QueryBody(w DateWindow) string {
	return fmt.Sprintf(
		"fields %s; where (first_release_date >= %d) & (first_release_date <= %d) & (themes != (%d)) & ((total_rating >= 78 & total_rating_count >= 15) | (total_rating_count >= 100)); limit 500;",
		strings.Join(queryFields, ", "),
		w.Lower.Unix(),
		w.Upper.Unix(),
		eroticTheme,
	)
}
