package models

import "strings"

// Sort keys accepted when listing sitters
const (
	SortByRank    = "rank"
	SortByRatings = "ratings"
	SortByName    = "name"
)

const (
	defaultSitterLimit = 50
	maxSitterLimit     = 500
)

// SitterQuery filters and orders a sitter listing
type SitterQuery struct {
	Search  string
	MinRank *float64
	Sort    string
	Desc    bool
	Limit   int
	Offset  int
}

// Normalize fills defaults. Unknown sort keys fall back to rank, descending;
// the limit defaults to 50 and is capped at 500.
func (q *SitterQuery) Normalize() {
	q.Search = strings.TrimSpace(q.Search)
	switch q.Sort {
	case SortByRank, SortByRatings, SortByName:
	default:
		q.Sort = SortByRank
		q.Desc = true
	}
	if q.Limit <= 0 {
		q.Limit = defaultSitterLimit
	}
	if q.Limit > maxSitterLimit {
		q.Limit = maxSitterLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}
