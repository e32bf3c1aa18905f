package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// RecentWindow is how far back a usage timestamp may lie for a machine to
// still count as recently used.
const RecentWindow = 24 * time.Hour

// Filter narrows the visible machine set. The zero value matches everything.
type Filter struct {
	Location string // exact match on location
	Contains string // case-insensitive substring match on location
	Recent   bool
	Now      time.Time // reference time for the recency window
}

// FromQuery builds a Filter from the request's query parameters. The caller
// supplies now so the recency cutoff is computed once per request rather
// than once per record.
func FromQuery(get func(string) string, now time.Time) (Filter, error) {
	f := Filter{
		Location: get("location"),
		Contains: get("loc"),
		Now:      now,
	}

	if raw := get("recent"); raw != "" {
		recent, err := strconv.ParseBool(raw)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid boolean value for recent: %q", raw)
		}
		f.Recent = recent
	}

	return f, nil
}

// likeEscaper quotes LIKE metacharacters so a substring search treats them
// as literals.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Apply narrows tx with the filter's predicates. All predicates combine
// with AND. LOWER(...) LIKE keeps the substring match case-insensitive on
// both postgres and sqlite.
func (f Filter) Apply(tx *gorm.DB) *gorm.DB {
	if f.Location != "" {
		tx = tx.Where("location = ?", f.Location)
	}
	if f.Contains != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(f.Contains)) + "%"
		tx = tx.Where(`LOWER(location) LIKE ? ESCAPE '\'`, pattern)
	}
	if f.Recent {
		cutoff := f.Now.Add(-RecentWindow)
		tx = tx.Where("last_usage IS NOT NULL AND last_usage >= ?", cutoff)
	}
	return tx
}
