// Package game holds the catalog record model and the rules that turn raw
// catalog results into records worth announcing.
package game

const (
	// CategoryRemake is the catalog game-type code for remakes.
	CategoryRemake = 8
	// WebsiteWiki is the catalog website category for wiki pages.
	WebsiteWiki = 3
)

// Named is a catalog sub-object that only matters for its name (genres,
// themes, platforms).
type Named struct {
	Name string `json:"name"`
}

type Company struct {
	Name string `json:"name"`
}

// InvolvedCompany links a company to a game. The flags are pointers so a
// missing key can be told apart from false.
type InvolvedCompany struct {
	Developer *bool    `json:"developer"`
	Publisher *bool    `json:"publisher"`
	Company   *Company `json:"company"`
}

type Website struct {
	Category *int   `json:"category"`
	URL      string `json:"url"`
}

// Image is an image descriptor as delivered by the catalog. URLs are
// protocol-relative thumbnails ("//images.igdb.com/.../t_thumb/abc.jpg").
type Image struct {
	ID  int64  `json:"id,omitempty"`
	URL string `json:"url,omitempty"`
}

// RawRecord is one game as returned by the catalog games endpoint.
type RawRecord struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Category          int               `json:"category"`
	ParentGame        *int64            `json:"parent_game,omitempty"`
	Summary           string            `json:"summary,omitempty"`
	Genres            []Named           `json:"genres,omitempty"`
	Themes            []Named           `json:"themes,omitempty"`
	Platforms         []Named           `json:"platforms,omitempty"`
	InvolvedCompanies []InvolvedCompany `json:"involved_companies,omitempty"`
	Websites          []Website         `json:"websites,omitempty"`
	Cover             *Image            `json:"cover,omitempty"`
	Screenshots       []Image           `json:"screenshots,omitempty"`
	Artworks          []Image           `json:"artworks,omitempty"`
	FirstReleaseDate  int64             `json:"first_release_date,omitempty"`
	TotalRating       float64           `json:"total_rating,omitempty"`
	TotalRatingCount  int               `json:"total_rating_count,omitempty"`

	// Year is stamped by Admit from the query window, not read from the
	// catalog.
	Year int `json:"year,omitempty"`
}

// CleanRecord is the normalized document persisted between the daily and
// hourly runs. Name is the store key.
type CleanRecord struct {
	Name        string   `json:"name"`
	Year        int      `json:"year,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Genres      []string `json:"genres"`
	Themes      []string `json:"themes,omitempty"`
	Developers  []string `json:"developers"`
	Publisher   string   `json:"publisher,omitempty"`
	Platforms   []string `json:"platforms,omitempty"`
	WikiURL     string   `json:"wiki_url,omitempty"`
	Cover       *Image   `json:"cover,omitempty"`
	Screenshots []Image  `json:"screenshots,omitempty"`
	Artworks    []Image  `json:"artworks,omitempty"`
}
