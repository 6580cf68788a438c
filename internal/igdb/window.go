package igdb

import (
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultStartYear is the first year queried by the daily run.
	DefaultStartYear = 1970
	// minAge keeps the most recent years out of the anniversary set.
	minAge = 3

	windowSpan = 23 * time.Hour
)

// DateWindow is one calendar day in one past year. Both bounds are
// inclusive when sent to the catalog.
type DateWindow struct {
	Lower time.Time
	Upper time.Time
}

// Year is the anniversary year the window stands for.
func (w DateWindow) Year() int { return w.Lower.Year() }

func (w DateWindow) String() string {
	return w.Lower.Format("2006-01-02")
}

// Windows returns one window per year from startYear through now's year
// minus three, each on now's month and day in UTC. A month/day that does
// not exist in one of those years fails the whole list.
func Windows(now time.Time, startYear int) ([]DateWindow, error) {
	if startYear <= 0 {
		startYear = DefaultStartYear
	}
	now = now.UTC()
	month, day := now.Month(), now.Day()
	last := now.Year() - minAge

	var out []DateWindow
	for year := startYear; year <= last; year++ {
		lower := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if lower.Month() != month || lower.Day() != day {
			return nil, errors.Errorf("igdb: no %s %d in %d", month, day, year)
		}
		out = append(out, DateWindow{Lower: lower, Upper: lower.Add(windowSpan)})
	}
	return out, nil
}
