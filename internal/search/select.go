package search

import (
	"sort"

	beaderrors "github.com/beadwork/bead/internal/errors"
	"github.com/beadwork/bead/internal/meta"
)

// ApplyUnique keeps the first occurrence per content id, preserving the
// retrieval order. Applying it twice changes nothing.
func ApplyUnique(beads []meta.Bead) []meta.Bead {
	seen := map[string]bool{}
	unique := make([]meta.Bead, 0, len(beads))
	for _, b := range beads {
		if !seen[b.ContentID] {
			seen[b.ContentID] = true
			unique = append(unique, b)
		}
	}
	return unique
}

// SortByFreezeTime returns a copy sorted ascending by freeze time. The sort
// is stable so equal instants keep their retrieval order.
func SortByFreezeTime(beads []meta.Bead) []meta.Bead {
	sorted := make([]meta.Bead, len(beads))
	copy(sorted, beads)
	sort.SliceStable(sorted, func(i, j int) bool {
		return meta.TimestampMicros(sorted[i].FreezeTime) < meta.TimestampMicros(sorted[j].FreezeTime)
	})
	return sorted
}

// First returns the first bead in retrieval order.
func First(beads []meta.Bead) (meta.Bead, error) {
	if len(beads) == 0 {
		return meta.Bead{}, beaderrors.NewLookupError("no beads found")
	}
	return beads[0], nil
}

// Oldest returns the bead with the minimum freeze time.
func Oldest(beads []meta.Bead) (meta.Bead, error) {
	return Newer(beads, 0)
}

// Newest returns the bead with the maximum freeze time.
func Newest(beads []meta.Bead) (meta.Bead, error) {
	return Older(beads, 0)
}

// Newer returns the n-th bead sorted ascending by freeze time (0 = oldest).
func Newer(beads []meta.Bead, n int) (meta.Bead, error) {
	if len(beads) == 0 {
		return meta.Bead{}, beaderrors.NewLookupError("no beads found")
	}
	if n < 0 || n >= len(beads) {
		return meta.Bead{}, beaderrors.NewLookupError(
			"not enough beads found (requested index %d, found %d)", n, len(beads))
	}
	return SortByFreezeTime(beads)[n], nil
}

// Older returns the n-th bead sorted descending by freeze time (0 = newest).
func Older(beads []meta.Bead, n int) (meta.Bead, error) {
	if len(beads) == 0 {
		return meta.Bead{}, beaderrors.NewLookupError("no beads found")
	}
	if n < 0 || n >= len(beads) {
		return meta.Bead{}, beaderrors.NewLookupError(
			"not enough beads found (requested index %d, found %d)", n, len(beads))
	}
	sorted := SortByFreezeTime(beads)
	return sorted[len(sorted)-1-n], nil
}
