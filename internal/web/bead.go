// Package web builds the provenance graph over a set of beads: nodes are
// beads identified by Ref, edges point from an input bead to its consumer,
// clusters group versions by name, and a coloring pass classifies each
// cluster head's freshness.
package web

import (
	"fmt"
	"time"

	"github.com/beadwork/bead/internal/meta"
)

// Bead is the web's view of a bead: the metadata plus freshness and the
// input alias map. Unlike the core metadata values it is mutated in place by
// the coloring pass, so it is handled by pointer.
type Bead struct {
	Name          string
	Kind          string
	ContentID     string
	FreezeTimeStr string
	FreezeTime    time.Time
	Inputs        []meta.InputSpec
	InputMap      map[string]string
	BoxName       string
	Freshness     Freshness
}

// FromMeta converts a core bead into a web bead. Freshness starts as
// Superseded; the coloring pass promotes heads.
func FromMeta(b meta.Bead) *Bead {
	return &Bead{
		Name:          b.Name,
		Kind:          b.Kind,
		ContentID:     b.ContentID,
		FreezeTimeStr: b.FreezeTimeStr,
		FreezeTime:    b.FreezeTime,
		Inputs:        b.Inputs,
		BoxName:       b.BoxName,
		Freshness:     Superseded,
	}
}

// Ref returns the bead's identity inside the web.
func (b *Bead) Ref() meta.Ref {
	return meta.Ref{Name: b.Name, ContentID: b.ContentID}
}

// InputBeadName resolves the bead name an input alias refers to: the
// alias itself unless the input map overrides it.
func (b *Bead) InputBeadName(alias string) string {
	if name, ok := b.InputMap[alias]; ok {
		return name
	}
	return alias
}

// SetFreshness updates the freshness. Phantoms are sticky: once Phantom,
// always Phantom.
func (b *Bead) SetFreshness(f Freshness) {
	if b.Freshness != Phantom {
		b.Freshness = f
	}
}

// IsPhantom reports whether the bead is a synthesized stand-in.
func (b *Bead) IsPhantom() bool { return b.Freshness == Phantom }

// PhantomFromInput synthesizes a stand-in for an input of owner that has no
// bead in the set. The phantom carries the input's identity and the name the
// owner's input map resolves the alias to.
func PhantomFromInput(owner *Bead, in meta.InputSpec) *Bead {
	freezeTime, _ := in.FreezeTime()
	return &Bead{
		Name:          owner.InputBeadName(in.Name),
		Kind:          in.Kind,
		ContentID:     in.ContentID,
		FreezeTimeStr: in.FreezeTimeStr,
		FreezeTime:    freezeTime,
		Freshness:     Phantom,
	}
}

func (b *Bead) String() string {
	return fmt.Sprintf("%s:%.8s:%s", b.Name, b.ContentID, b.Freshness)
}
