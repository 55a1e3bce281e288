package box

import (
	"time"

	"github.com/beadwork/bead/internal/meta"
	"github.com/beadwork/bead/internal/search"
)

// Search is the single-box terminal driver over the fluent query record.
// Values are immutable; every filter returns a new Search.
type Search struct {
	box *Box
	q   search.Query
}

// ByName filters by bead name.
func (s Search) ByName(name string) Search {
	s.q = s.q.WithName(name)
	return s
}

// ByKind filters by bead kind.
func (s Search) ByKind(kind string) Search {
	s.q = s.q.WithKind(kind)
	return s
}

// ByContentID filters by exact content id.
func (s Search) ByContentID(contentID string) Search {
	s.q = s.q.WithContentID(contentID)
	return s
}

// AtTime matches beads frozen exactly at t.
func (s Search) AtTime(t time.Time) Search {
	s.q = s.q.WithAtTime(t)
	return s
}

// NewerThan matches beads frozen strictly after t.
func (s Search) NewerThan(t time.Time) Search {
	s.q = s.q.WithNewerThan(t)
	return s
}

// OlderThan matches beads frozen strictly before t.
func (s Search) OlderThan(t time.Time) Search {
	s.q = s.q.WithOlderThan(t)
	return s
}

// AtOrNewer matches beads frozen at or after t.
func (s Search) AtOrNewer(t time.Time) Search {
	s.q = s.q.WithAtOrNewer(t)
	return s
}

// AtOrOlder matches beads frozen at or before t.
func (s Search) AtOrOlder(t time.Time) Search {
	s.q = s.q.WithAtOrOlder(t)
	return s
}

// Unique keeps the first occurrence per content id.
func (s Search) Unique() Search {
	s.q = s.q.WithUnique()
	return s
}

// All returns the matches in retrieval order (ascending freeze time).
func (s Search) All() ([]meta.Bead, error) {
	return s.box.beads(s.q)
}

// First returns the first match.
func (s Search) First() (meta.Bead, error) {
	beads, err := s.All()
	if err != nil {
		return meta.Bead{}, err
	}
	return search.First(beads)
}

// Oldest returns the match with the minimum freeze time.
func (s Search) Oldest() (meta.Bead, error) {
	beads, err := s.All()
	if err != nil {
		return meta.Bead{}, err
	}
	return search.Oldest(beads)
}

// Newest returns the match with the maximum freeze time.
func (s Search) Newest() (meta.Bead, error) {
	beads, err := s.All()
	if err != nil {
		return meta.Bead{}, err
	}
	return search.Newest(beads)
}

// Newer returns the n-th match ascending by freeze time (0 = oldest).
func (s Search) Newer(n int) (meta.Bead, error) {
	beads, err := s.All()
	if err != nil {
		return meta.Bead{}, err
	}
	return search.Newer(beads, n)
}

// Older returns the n-th match descending by freeze time (0 = newest).
func (s Search) Older(n int) (meta.Bead, error) {
	beads, err := s.All()
	if err != nil {
		return meta.Bead{}, err
	}
	return search.Older(beads, n)
}
