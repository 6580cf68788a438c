package game

import (
	"strings"

	"github.com/pkg/errors"
)

// RemakeSuffix is appended to remake names that do not already say so.
const RemakeSuffix = " Remake"

var (
	ErrNotParent = errors.New("game: not a parent title")
	ErrSports    = errors.New("game: sports title")
)

func IsRemake(r RawRecord) bool {
	return r.Category == CategoryRemake
}

// IsParent reports whether r is a first release rather than a DLC, expansion
// or edition of another game. A record that names itself as parent, or that
// carries no id to compare with, counts as a parent.
func IsParent(r RawRecord) bool {
	if r.ID == 0 || r.ParentGame == nil || *r.ParentGame == 0 {
		return true
	}
	return *r.ParentGame == r.ID
}

func IsSports(r RawRecord) bool {
	for _, g := range r.Genres {
		if g.Name == "Sport" {
			return true
		}
	}
	return false
}

// Admit decides whether r belongs in the daily batch. Remakes are always
// admitted and get their name suffixed; everything else must be a parent
// title outside the sports genre. The admitted copy carries windowYear as
// its release year. r itself is left untouched.
func Admit(r RawRecord, windowYear int) (RawRecord, error) {
	switch {
	case IsRemake(r):
		if strings.TrimSpace(r.Name) != "" && !strings.Contains(strings.ToLower(r.Name), "remake") {
			r.Name += RemakeSuffix
		}
	case !IsParent(r):
		return RawRecord{}, errors.Wrapf(ErrNotParent, "%q has parent %d", r.Name, *r.ParentGame)
	case IsSports(r):
		return RawRecord{}, errors.Wrapf(ErrSports, "%q", r.Name)
	}
	r.Year = windowYear
	return r, nil
}
