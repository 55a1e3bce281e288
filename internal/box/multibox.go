package box

import (
	"errors"
	"time"

	beaderrors "github.com/beadwork/bead/internal/errors"
	"github.com/beadwork/bead/internal/meta"
	"github.com/beadwork/bead/internal/search"
)

// MultiSearch distributes one predicate set across several boxes. All
// terminal selectors except First aggregate every box's results before
// selecting; First short-circuits on the first box that yields a match and
// skips boxes that fail their own scan.
type MultiSearch struct {
	boxes []*Box
	q     search.Query
}

// SearchBoxes starts a fluent query across the boxes, in order.
func SearchBoxes(boxes []*Box) MultiSearch {
	return MultiSearch{boxes: boxes}
}

// ByName filters by bead name.
func (s MultiSearch) ByName(name string) MultiSearch {
	s.q = s.q.WithName(name)
	return s
}

// ByKind filters by bead kind.
func (s MultiSearch) ByKind(kind string) MultiSearch {
	s.q = s.q.WithKind(kind)
	return s
}

// ByContentID filters by exact content id.
func (s MultiSearch) ByContentID(contentID string) MultiSearch {
	s.q = s.q.WithContentID(contentID)
	return s
}

// AtTime matches beads frozen exactly at t.
func (s MultiSearch) AtTime(t time.Time) MultiSearch {
	s.q = s.q.WithAtTime(t)
	return s
}

// NewerThan matches beads frozen strictly after t.
func (s MultiSearch) NewerThan(t time.Time) MultiSearch {
	s.q = s.q.WithNewerThan(t)
	return s
}

// OlderThan matches beads frozen strictly before t.
func (s MultiSearch) OlderThan(t time.Time) MultiSearch {
	s.q = s.q.WithOlderThan(t)
	return s
}

// AtOrNewer matches beads frozen at or after t.
func (s MultiSearch) AtOrNewer(t time.Time) MultiSearch {
	s.q = s.q.WithAtOrNewer(t)
	return s
}

// AtOrOlder matches beads frozen at or before t.
func (s MultiSearch) AtOrOlder(t time.Time) MultiSearch {
	s.q = s.q.WithAtOrOlder(t)
	return s
}

// Unique keeps the first occurrence per content id across the aggregate.
func (s MultiSearch) Unique() MultiSearch {
	s.q = s.q.WithUnique()
	return s
}

// All concatenates each box's matches in box order, then applies the
// uniqueness filter.
func (s MultiSearch) All() ([]meta.Bead, error) {
	if err := s.q.Err(); err != nil {
		return nil, err
	}
	var all []meta.Bead
	for _, b := range s.boxes {
		beads, err := b.beads(s.q)
		if err != nil {
			return nil, err
		}
		all = append(all, beads...)
	}
	if s.q.Unique {
		all = search.ApplyUnique(all)
	}
	return all, nil
}

// First returns the first match from the first box that yields any. Boxes
// whose scan fails with storage or archive problems are skipped; query
// composition errors still propagate.
func (s MultiSearch) First() (meta.Bead, error) {
	if err := s.q.Err(); err != nil {
		return meta.Bead{}, err
	}
	for _, b := range s.boxes {
		beads, err := b.beads(s.q)
		if err != nil {
			var argErr *beaderrors.ArgumentError
			if errors.As(err, &argErr) {
				return meta.Bead{}, err
			}
			continue
		}
		if len(beads) > 0 {
			return beads[0], nil
		}
	}
	return meta.Bead{}, beaderrors.NewLookupError("no beads found")
}

// Oldest returns the aggregate match with the minimum freeze time.
func (s MultiSearch) Oldest() (meta.Bead, error) {
	beads, err := s.All()
	if err != nil {
		return meta.Bead{}, err
	}
	return search.Oldest(beads)
}

// Newest returns the aggregate match with the maximum freeze time.
func (s MultiSearch) Newest() (meta.Bead, error) {
	beads, err := s.All()
	if err != nil {
		return meta.Bead{}, err
	}
	return search.Newest(beads)
}

// Newer returns the n-th aggregate match ascending by freeze time.
func (s MultiSearch) Newer(n int) (meta.Bead, error) {
	beads, err := s.All()
	if err != nil {
		return meta.Bead{}, err
	}
	return search.Newer(beads, n)
}

// Older returns the n-th aggregate match descending by freeze time.
func (s MultiSearch) Older(n int) (meta.Bead, error) {
	beads, err := s.All()
	if err != nil {
		return meta.Bead{}, err
	}
	return search.Older(beads, n)
}
