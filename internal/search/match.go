package search

import (
	"github.com/beadwork/bead/internal/meta"
)

// Matches evaluates one condition against a bead. Predicate conjunction
// holds by construction: a query matches iff every condition matches.
func Matches(c Condition, b meta.Bead) bool {
	switch c.Kind {
	case ByBeadName:
		return b.Name == c.Value
	case ByKind:
		return b.Kind == c.Value
	case ByContentID:
		return b.ContentID == c.Value
	case AtTime:
		return meta.TimestampMicros(b.FreezeTime) == c.Micros
	case NewerThan:
		return meta.TimestampMicros(b.FreezeTime) > c.Micros
	case OlderThan:
		return meta.TimestampMicros(b.FreezeTime) < c.Micros
	case AtOrNewer:
		return meta.TimestampMicros(b.FreezeTime) >= c.Micros
	case AtOrOlder:
		return meta.TimestampMicros(b.FreezeTime) <= c.Micros
	}
	return false
}

// CompileMatch builds an in-memory match function for the condition list,
// used by the filesystem resolver.
func CompileMatch(conditions []Condition) func(meta.Bead) bool {
	return func(b meta.Bead) bool {
		for _, c := range conditions {
			if !Matches(c, b) {
				return false
			}
		}
		return true
	}
}
