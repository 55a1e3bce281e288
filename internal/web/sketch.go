package web

import (
	"strings"

	"github.com/beadwork/bead/internal/meta"
)

// Sketch is one immutable snapshot of the provenance web: the known beads
// (phantoms included) and the input edges between them. Operations derive
// new sketches; coloring mutates only the freshness of the shared bead
// values.
type Sketch struct {
	Beads []*Bead
	Edges []Edge
}

// FromMetaBeads builds a sketch from core bead metadata. Inputs that
// reference a bead absent from the set get a synthesized phantom endpoint,
// so every edge's endpoints are present.
func FromMetaBeads(beads []meta.Bead) *Sketch {
	webBeads := make([]*Bead, 0, len(beads))
	for _, b := range beads {
		webBeads = append(webBeads, FromMeta(b))
	}
	return fromBeads(webBeads)
}

// fromBeads assembles a sketch over existing web beads, synthesizing
// phantoms for unresolved inputs.
func fromBeads(beads []*Bead) *Sketch {
	byRef := map[meta.Ref]*Bead{}
	ordered := make([]*Bead, 0, len(beads))
	for _, b := range beads {
		if _, dup := byRef[b.Ref()]; !dup {
			byRef[b.Ref()] = b
			ordered = append(ordered, b)
		}
	}

	var edges []Edge
	for _, dest := range ordered {
		for _, in := range dest.Inputs {
			srcRef := meta.Ref{Name: dest.InputBeadName(in.Name), ContentID: in.ContentID}
			src, ok := byRef[srcRef]
			if !ok {
				src = PhantomFromInput(dest, in)
				byRef[srcRef] = src
				ordered = append(ordered, src)
			}
			edges = append(edges, Edge{Src: src, Dest: dest, Label: in.Name})
		}
	}
	return &Sketch{Beads: ordered, Edges: edges}
}

// Clusters partitions the sketch's beads by name, ordered by name.
func (s *Sketch) Clusters() []*Cluster {
	return sortedClusters(clusterIndex(s.Beads))
}

// restrict keeps the beads accepted by keep and the edges with both
// endpoints kept.
func (s *Sketch) restrict(keep func(*Bead) bool) *Sketch {
	kept := map[meta.Ref]bool{}
	var beads []*Bead
	for _, b := range s.Beads {
		if keep(b) {
			kept[b.Ref()] = true
			beads = append(beads, b)
		}
	}
	var edges []Edge
	for _, e := range s.Edges {
		if kept[e.SrcRef()] && kept[e.DestRef()] {
			edges = append(edges, e)
		}
	}
	return &Sketch{Beads: beads, Edges: edges}
}

// Heads restricts the sketch to cluster heads and their direct inputs.
func (s *Sketch) Heads() *Sketch {
	headRefs := map[meta.Ref]bool{}
	for _, c := range s.Clusters() {
		headRefs[c.Head().Ref()] = true
	}

	var headEdges []Edge
	keep := map[meta.Ref]*Bead{}
	for _, e := range s.Edges {
		if headRefs[e.DestRef()] {
			headEdges = append(headEdges, e)
			keep[e.SrcRef()] = e.Src
		}
	}
	var beads []*Bead
	for _, b := range s.Beads {
		if headRefs[b.Ref()] || keep[b.Ref()] != nil {
			beads = append(beads, b)
		}
	}
	return &Sketch{Beads: beads, Edges: headEdges}
}

// addFinalSink returns a copy of the sketch extended with a synthetic sink
// node receiving an edge from every bead. The sink's name cannot collide
// with a real bead name, and its freshness starts UpToDate.
func (s *Sketch) addFinalSink() (*Sketch, *Bead) {
	maxLen := 0
	for _, b := range s.Beads {
		if len(b.Name) > maxLen {
			maxLen = len(b.Name)
		}
	}
	sinkName := strings.Repeat("*", maxLen+1)
	sink := &Bead{
		Name:          sinkName,
		Kind:          sinkName,
		ContentID:     sinkName,
		FreezeTimeStr: "SINK",
		Freshness:     UpToDate,
	}

	beads := make([]*Bead, 0, len(s.Beads)+1)
	beads = append(beads, s.Beads...)
	beads = append(beads, sink)

	edges := make([]Edge, 0, len(s.Edges)+len(s.Beads))
	edges = append(edges, s.Edges...)
	for _, b := range s.Beads {
		edges = append(edges, Edge{Src: b, Dest: sink})
	}
	return &Sketch{Beads: beads, Edges: edges}, sink
}

// ColorBeads assigns freshness to every bead: non-head versions are
// Superseded, heads are UpToDate unless an input edge arrives from a source
// that is not UpToDate, in which case the head is OutOfDate. The walk visits
// heads in topological order so staleness propagates exactly once along each
// edge. Returns whether every cluster head ended UpToDate; a cycle among
// cluster heads yields a CycleError.
func (s *Sketch) ColorBeads() (bool, error) {
	heads, sink := s.Heads().addFinalSink()
	evalOrder, err := toposort(heads.Beads, heads.Edges)
	if err != nil {
		return false, err
	}

	for _, c := range s.Clusters() {
		c.resetFreshness()
	}

	edgesByDest := groupByDest(heads.Edges)
	for _, head := range evalOrder {
		if head.Freshness != UpToDate {
			continue
		}
		for _, e := range edgesByDest[head.Ref()] {
			if e.Src.Freshness != UpToDate {
				head.SetFreshness(OutOfDate)
				break
			}
		}
	}
	return sink.Freshness == UpToDate, nil
}
