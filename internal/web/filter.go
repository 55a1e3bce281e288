package web

import (
	"time"
)

// The filter operations work on the cluster graph: cluster names as nodes,
// with an edge between two names when any bead of the source cluster is
// referenced by any bead of the destination cluster. Traversing names
// instead of individual beads lets source/sink selection follow stale links
// too.

// clusterEdges returns the forward adjacency (src name -> dest names) of the
// cluster graph, cross-cluster edges only.
func (s *Sketch) clusterEdges() map[string][]string {
	seen := map[[2]string]bool{}
	next := map[string][]string{}
	for _, e := range s.Edges {
		src, dest := e.Src.Name, e.Dest.Name
		if src == dest || seen[[2]string{src, dest}] {
			continue
		}
		seen[[2]string{src, dest}] = true
		next[src] = append(next[src], dest)
	}
	return next
}

// reverseEdges flips an adjacency map.
func reverseEdges(next map[string][]string) map[string][]string {
	prev := map[string][]string{}
	for src, dests := range next {
		for _, dest := range dests {
			prev[dest] = append(prev[dest], src)
		}
	}
	return prev
}

// keepClusters restricts the sketch to beads of the named clusters.
func (s *Sketch) keepClusters(names map[string]bool) *Sketch {
	return s.restrict(func(b *Bead) bool { return names[b.Name] })
}

// Simplify drops clusters that neither reference another cluster nor are
// referenced by one.
func (s *Sketch) Simplify() *Sketch {
	next := s.clusterEdges()
	connected := map[string]bool{}
	for src, dests := range next {
		connected[src] = true
		for _, dest := range dests {
			connected[dest] = true
		}
	}
	return s.keepClusters(connected)
}

// SetSources keeps only the clusters reachable forward from the named
// clusters (the named clusters included).
func (s *Sketch) SetSources(names []string) *Sketch {
	return s.keepClusters(closure(names, s.clusterEdges()))
}

// SetSinks keeps only the clusters that can reach any of the named clusters
// (the named clusters included).
func (s *Sketch) SetSinks(names []string) *Sketch {
	return s.keepClusters(closure(names, reverseEdges(s.clusterEdges())))
}

// DropBefore keeps only beads frozen at or after t.
func (s *Sketch) DropBefore(t time.Time) *Sketch {
	return s.restrict(func(b *Bead) bool { return !b.FreezeTime.Before(t) })
}

// DropAfter keeps only beads frozen at or before t.
func (s *Sketch) DropAfter(t time.Time) *Sketch {
	return s.restrict(func(b *Bead) bool { return !b.FreezeTime.After(t) })
}
