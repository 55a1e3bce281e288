package web

import (
	"sort"
)

// Cluster is the set of beads sharing a name. Its head is the latest member
// by freeze time, ties broken by lexicographic content id.
type Cluster struct {
	Name  string
	Beads []*Bead
}

// Head returns the cluster's latest bead.
func (c *Cluster) Head() *Bead {
	head := c.Beads[0]
	for _, b := range c.Beads[1:] {
		if b.FreezeTime.After(head.FreezeTime) ||
			(b.FreezeTime.Equal(head.FreezeTime) && b.ContentID > head.ContentID) {
			head = b
		}
	}
	return head
}

// resetFreshness restores the pre-coloring state: everything Superseded,
// then the head promoted to UpToDate. Phantoms stay Phantom.
func (c *Cluster) resetFreshness() {
	for _, b := range c.Beads {
		b.SetFreshness(Superseded)
	}
	c.Head().SetFreshness(UpToDate)
}

// clusterIndex partitions beads by name, with clusters iterable in name
// order via sortedClusters.
func clusterIndex(beads []*Bead) map[string]*Cluster {
	clusters := map[string]*Cluster{}
	for _, b := range beads {
		c, ok := clusters[b.Name]
		if !ok {
			c = &Cluster{Name: b.Name}
			clusters[b.Name] = c
		}
		c.Beads = append(c.Beads, b)
	}
	return clusters
}

func sortedClusters(clusters map[string]*Cluster) []*Cluster {
	names := make([]string, 0, len(clusters))
	for name := range clusters {
		names = append(names, name)
	}
	sort.Strings(names)

	ordered := make([]*Cluster, 0, len(names))
	for _, name := range names {
		ordered = append(ordered, clusters[name])
	}
	return ordered
}
