// Package search models box queries: a closed set of conjunctive predicates,
// a uniqueness filter and ordinal selection over retrieved beads. The Query
// value is immutable; every append returns a copy. Storage backends compile
// the predicate list themselves (SQL in the index, match functions here for
// the filesystem path).
package search

import (
	"time"

	beaderrors "github.com/beadwork/bead/internal/errors"
	"github.com/beadwork/bead/internal/meta"
)

// ConditionKind enumerates the supported predicates.
type ConditionKind int

const (
	ByBeadName ConditionKind = iota
	ByKind
	ByContentID
	AtTime
	NewerThan
	OlderThan
	AtOrNewer
	AtOrOlder
)

// Condition is one predicate. String predicates carry Value; time predicates
// carry Micros, the UTC microsecond instant all time comparisons use.
type Condition struct {
	Kind   ConditionKind
	Value  string
	Micros int64
}

// IsTime reports whether the condition compares freeze times.
func (c Condition) IsTime() bool {
	return c.Kind >= AtTime
}

// Query is an immutable accumulation of conditions plus the uniqueness flag.
// A composition error (empty predicate string) is carried in the value and
// surfaced by the terminal selectors.
type Query struct {
	Conditions []Condition
	Unique     bool

	err error
}

func (q Query) withCondition(c Condition) Query {
	conditions := make([]Condition, len(q.Conditions), len(q.Conditions)+1)
	copy(conditions, q.Conditions)
	return Query{Conditions: append(conditions, c), Unique: q.Unique, err: q.err}
}

func (q Query) withStringCondition(kind ConditionKind, what, value string) Query {
	if q.err == nil && value == "" {
		q.err = beaderrors.NewArgumentError("empty %s in query", what)
	}
	return q.withCondition(Condition{Kind: kind, Value: value})
}

// WithName filters by bead name.
func (q Query) WithName(name string) Query {
	return q.withStringCondition(ByBeadName, "bead name", name)
}

// WithKind filters by bead kind.
func (q Query) WithKind(kind string) Query {
	return q.withStringCondition(ByKind, "kind", kind)
}

// WithContentID filters by exact content id.
func (q Query) WithContentID(contentID string) Query {
	return q.withStringCondition(ByContentID, "content id", contentID)
}

// WithAtTime matches beads frozen exactly at t.
func (q Query) WithAtTime(t time.Time) Query {
	return q.withCondition(Condition{Kind: AtTime, Micros: meta.TimestampMicros(t)})
}

// WithNewerThan matches beads frozen strictly after t.
func (q Query) WithNewerThan(t time.Time) Query {
	return q.withCondition(Condition{Kind: NewerThan, Micros: meta.TimestampMicros(t)})
}

// WithOlderThan matches beads frozen strictly before t.
func (q Query) WithOlderThan(t time.Time) Query {
	return q.withCondition(Condition{Kind: OlderThan, Micros: meta.TimestampMicros(t)})
}

// WithAtOrNewer matches beads frozen at or after t.
func (q Query) WithAtOrNewer(t time.Time) Query {
	return q.withCondition(Condition{Kind: AtOrNewer, Micros: meta.TimestampMicros(t)})
}

// WithAtOrOlder matches beads frozen at or before t.
func (q Query) WithAtOrOlder(t time.Time) Query {
	return q.withCondition(Condition{Kind: AtOrOlder, Micros: meta.TimestampMicros(t)})
}

// WithUnique enables the uniqueness filter: keep the first occurrence per
// content id, preserving retrieval order.
func (q Query) WithUnique() Query {
	q.Unique = true
	return q
}

// Err returns the first composition error, if any.
func (q Query) Err() error { return q.err }

// NameValues returns the distinct values of all bead-name conditions.
func (q Query) NameValues() []string {
	seen := map[string]bool{}
	var names []string
	for _, c := range q.Conditions {
		if c.Kind == ByBeadName && !seen[c.Value] {
			seen[c.Value] = true
			names = append(names, c.Value)
		}
	}
	return names
}

// Contradictory reports whether the conditions can never match: two
// disagreeing bead-name equalities yield an empty result without touching
// storage.
func (q Query) Contradictory() bool {
	return len(q.NameValues()) > 1
}
