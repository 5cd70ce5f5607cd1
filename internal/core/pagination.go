// AngelaMos | 2026
// pagination.go

package core

import (
	"math"
	"net/http"
	"strconv"
)

const (
	DefaultPage  = 1
	MaxPageLimit = 20
	// MaxPage keeps Offset inside a Postgres int4 however large ?page= is.
	MaxPage = math.MaxInt32 / MaxPageLimit
)

// Page is a normalized page request. Limit never exceeds MaxPageLimit no
// matter what the client asked for, and Page never exceeds MaxPage.
type Page struct {
	Page  int
	Limit int
}

func NewPage(page, limit int) Page {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 || limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageFromRequest reads ?page= and ?limit=. Unparseable values fall back
// to defaults.
func PageFromRequest(r *http.Request) Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))   //nolint:errcheck // default on bad input
	limit, _ := strconv.Atoi(q.Get("limit")) //nolint:errcheck // default on bad input
	return NewPage(page, limit)
}
