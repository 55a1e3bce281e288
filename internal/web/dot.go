package web

import (
	"fmt"

	"github.com/emicklei/dot"

	"github.com/beadwork/bead/internal/meta"
)

// Freshness display colors in DOT output.
var freshnessColor = map[Freshness]string{
	Phantom:    "red",
	Superseded: "grey",
	UpToDate:   "green",
	OutOfDate:  "orange",
}

// AsDot renders the sketch as a GraphViz document: one subgraph cluster per
// bead cluster, nodes colored by freshness, edges labeled with the input
// alias. Edges into beads that are neither up to date nor out of date are
// drawn dashed as auxiliary history.
func (s *Sketch) AsDot() string {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "LR")

	nodes := map[meta.Ref]dot.Node{}
	for _, c := range s.Clusters() {
		sub := g.Subgraph(c.Name, dot.ClusterOption{})
		sub.Attr("label", c.Name)
		for _, b := range c.Beads {
			n := sub.Node(nodeID(b)).
				Attr("label", fmt.Sprintf("%s\n%.8s", b.FreezeTimeStr, b.ContentID)).
				Attr("shape", "box").
				Attr("style", "filled").
				Attr("fillcolor", freshnessColor[b.Freshness])
			nodes[b.Ref()] = n
		}
	}

	for _, e := range s.Edges {
		edge := g.Edge(nodes[e.SrcRef()], nodes[e.DestRef()])
		if e.Label != "" {
			edge.Attr("label", e.Label)
		}
		if e.Dest.Freshness != UpToDate && e.Dest.Freshness != OutOfDate {
			edge.Attr("style", "dashed")
		}
	}
	return g.String()
}

func nodeID(b *Bead) string {
	return fmt.Sprintf("%s_%.8s", b.Name, b.ContentID)
}
