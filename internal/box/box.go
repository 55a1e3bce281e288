// Package box ties one local directory of bead archives to a resolver and
// exposes query, store and resolve operations. The preferred resolver is the
// persistent index; when the index cannot be prepared the box degrades to
// scanning the filesystem.
package box

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/beadwork/bead/internal/boxfs"
	"github.com/beadwork/bead/internal/boxindex"
	beaderrors "github.com/beadwork/bead/internal/errors"
	"github.com/beadwork/bead/internal/meta"
	"github.com/beadwork/bead/internal/search"
	"github.com/beadwork/bead/internal/workspace"
	"github.com/beadwork/bead/internal/ziparchive"
)

// Resolver answers queries for one box directory. Both the persistent index
// and the filesystem scanner satisfy it with identical semantics.
type Resolver interface {
	// Beads returns the matching beads sorted ascending by freeze time.
	Beads(conditions []search.Condition, boxName string) ([]meta.Bead, error)
	// FilePath resolves the storage location of a bead.
	FilePath(name, contentID string) (string, error)
	// NoteArchive tells the resolver about a freshly stored archive.
	NoteArchive(path string) error
}

// Box is a named directory of bead archives.
type Box struct {
	Name      string
	Directory string

	resolver Resolver
}

// New creates a box over the directory. The index is attempted first; if it
// cannot be prepared (read-only media, corrupt file) the box falls back to
// the filesystem resolver.
func New(name, directory string) *Box {
	ix := boxindex.New(directory)
	if err := ix.EnsureExists(); err != nil {
		return NewWithResolver(name, directory, boxfs.New(directory))
	}
	return NewWithResolver(name, directory, indexResolver{ix})
}

// NewWithResolver creates a box with an explicit resolver.
func NewWithResolver(name, directory string, r Resolver) *Box {
	return &Box{Name: name, Directory: directory, resolver: r}
}

// AllBeads returns every bead in the box, ordered by ascending freeze time.
func (b *Box) AllBeads() ([]meta.Bead, error) {
	return b.Search().All()
}

// Search starts a fluent query against this box.
func (b *Box) Search() Search {
	return Search{box: b}
}

// Store packs the workspace into this box under the canonical
// <name>_<freeze_time>.zip filename and informs the resolver. A failed
// resolver update does not fail the store: the archive on disk is the truth
// and sync will pick it up.
func (b *Box) Store(ws *workspace.Workspace, freezeTime time.Time) (string, error) {
	info, err := os.Stat(b.Directory)
	if err != nil {
		return "", beaderrors.NewBoxError(b.Name, fmt.Sprintf("directory %s does not exist", b.Directory))
	}
	if !info.IsDir() {
		return "", beaderrors.NewBoxError(b.Name, fmt.Sprintf("%s is not a directory", b.Directory))
	}

	freezeTimeStr := meta.FormatTimestamp(freezeTime)
	archivePath := filepath.Join(b.Directory, fmt.Sprintf("%s_%s.zip", ws.Name(), freezeTimeStr))
	if _, err := ws.Pack(archivePath, freezeTimeStr); err != nil {
		return "", err
	}
	_ = b.resolver.NoteArchive(archivePath)
	return archivePath, nil
}

// Resolve opens the archive backing a bead of this box. The resolved
// archive's identity must agree with the requested bead.
func (b *Box) Resolve(bead meta.Bead) (*ziparchive.Archive, error) {
	if bead.BoxName != b.Name {
		return nil, beaderrors.NewArgumentError(
			"bead %q belongs to box %q, not %q", bead.Name, bead.BoxName, b.Name)
	}
	path, err := b.resolver.FilePath(bead.Name, bead.ContentID)
	if err != nil {
		return nil, err
	}
	archive, err := ziparchive.Open(path, b.Name)
	if err != nil {
		return nil, err
	}
	if archive.Name != bead.Name || archive.ContentID != bead.ContentID || archive.BoxName != bead.BoxName {
		return nil, beaderrors.NewArgumentError(
			"archive at %s does not match bead %q (%s)", path, bead.Name, bead.ContentID)
	}
	return archive, nil
}

// beads runs a compiled query against the box's resolver.
func (b *Box) beads(q search.Query) ([]meta.Bead, error) {
	if err := q.Err(); err != nil {
		return nil, err
	}
	if q.Contradictory() {
		return nil, nil
	}
	beads, err := b.resolver.Beads(q.Conditions, b.Name)
	if err != nil {
		return nil, err
	}
	if q.Unique {
		beads = search.ApplyUnique(beads)
	}
	return beads, nil
}

// indexResolver adapts the persistent index to the Resolver interface.
type indexResolver struct {
	ix *boxindex.Index
}

func (r indexResolver) Beads(conditions []search.Condition, boxName string) ([]meta.Bead, error) {
	return r.ix.Beads(conditions, boxName)
}

func (r indexResolver) FilePath(name, contentID string) (string, error) {
	return r.ix.FilePath(name, contentID)
}

func (r indexResolver) NoteArchive(path string) error {
	return r.ix.IndexOne(path)
}

// IndexOf exposes the box's index handle when the box is index-backed, for
// rebuild/sync drivers. Returns nil for filesystem-backed boxes.
func (b *Box) IndexOf() *boxindex.Index {
	if r, ok := b.resolver.(indexResolver); ok {
		return r.ix
	}
	return nil
}
