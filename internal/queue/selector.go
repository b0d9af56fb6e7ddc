package queue

import (
	"sort"

	"github.com/RichGutz/Scraper.Neoauto/internal/domain"
)

// Select merges the unvisited backlog and the revisit pool into one ordered
// work sequence bounded by quota. Backlog items keep their given order and
// all precede revisit items. Revisit items are ordered least-recently-visited
// first, with never-visited (nil LastScraped) entries ahead of everything, so
// the historical set is eventually re-covered.
//
// Empty pools are not an error; an empty combined queue yields an empty slice.
// A quota <= 0 means unbounded.
func Select(backlog, revisit []domain.ListingTarget, quota int) []domain.ListingTarget {
	ordered := make([]domain.ListingTarget, 0, len(backlog)+len(revisit))
	ordered = append(ordered, backlog...)

	staleFirst := make([]domain.ListingTarget, len(revisit))
	copy(staleFirst, revisit)
	sort.SliceStable(staleFirst, func(i, j int) bool {
		a, b := staleFirst[i].LastScraped, staleFirst[j].LastScraped
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	ordered = append(ordered, staleFirst...)

	if quota > 0 && len(ordered) > quota {
		ordered = ordered[:quota]
	}
	return ordered
}
