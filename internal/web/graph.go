package web

import (
	"sort"

	beaderrors "github.com/beadwork/bead/internal/errors"
	"github.com/beadwork/bead/internal/meta"
)

// Edge is one provenance link: Src was used as the input named Label by
// Dest.
type Edge struct {
	Src   *Bead
	Dest  *Bead
	Label string
}

// SrcRef returns the source bead's identity.
func (e Edge) SrcRef() meta.Ref { return e.Src.Ref() }

// DestRef returns the destination bead's identity.
func (e Edge) DestRef() meta.Ref { return e.Dest.Ref() }

// groupByDest indexes edges by their destination ref.
func groupByDest(edges []Edge) map[meta.Ref][]Edge {
	grouped := map[meta.Ref][]Edge{}
	for _, e := range edges {
		grouped[e.DestRef()] = append(grouped[e.DestRef()], e)
	}
	return grouped
}

// toposort orders the beads so that every edge's source precedes its
// destination. Ties are broken by name then content id so the order is
// deterministic. A cycle yields a CycleError naming the stuck beads.
func toposort(beads []*Bead, edges []Edge) ([]*Bead, error) {
	indegree := map[meta.Ref]int{}
	successors := map[meta.Ref][]*Bead{}
	byRef := map[meta.Ref]*Bead{}
	for _, b := range beads {
		byRef[b.Ref()] = b
	}
	for _, e := range edges {
		if byRef[e.SrcRef()] == nil || byRef[e.DestRef()] == nil {
			continue
		}
		indegree[e.DestRef()]++
		successors[e.SrcRef()] = append(successors[e.SrcRef()], e.Dest)
	}

	ready := make([]*Bead, 0, len(beads))
	for _, b := range beads {
		if indegree[b.Ref()] == 0 {
			ready = append(ready, b)
		}
	}
	sortBeads(ready)

	var order []*Bead
	for len(ready) > 0 {
		b := ready[0]
		ready = ready[1:]
		order = append(order, b)

		var unlocked []*Bead
		for _, succ := range successors[b.Ref()] {
			indegree[succ.Ref()]--
			if indegree[succ.Ref()] == 0 {
				unlocked = append(unlocked, succ)
			}
		}
		sortBeads(unlocked)
		ready = append(ready, unlocked...)
	}

	if len(order) < len(beads) {
		var stuck []string
		seen := map[string]bool{}
		for _, b := range beads {
			if indegree[b.Ref()] > 0 && !seen[b.Name] {
				seen[b.Name] = true
				stuck = append(stuck, b.Name)
			}
		}
		sort.Strings(stuck)
		return nil, beaderrors.NewCycleError(stuck)
	}
	return order, nil
}

func sortBeads(beads []*Bead) {
	sort.Slice(beads, func(i, j int) bool {
		if beads[i].Name != beads[j].Name {
			return beads[i].Name < beads[j].Name
		}
		return beads[i].ContentID < beads[j].ContentID
	})
}

// closure returns the set of nodes reachable from the start set, start
// nodes included, following the adjacency map.
func closure(start []string, next map[string][]string) map[string]bool {
	reachable := map[string]bool{}
	queue := append([]string(nil), start...)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if reachable[node] {
			continue
		}
		reachable[node] = true
		queue = append(queue, next[node]...)
	}
	return reachable
}
