// Package boxfs resolves beads by walking a box directory and opening each
// candidate archive. It serves the same query contract as the persistent
// index and is used when the index is unavailable or disabled.
package boxfs

import (
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"

	beaderrors "github.com/beadwork/bead/internal/errors"
	"github.com/beadwork/bead/internal/meta"
	"github.com/beadwork/bead/internal/search"
	"github.com/beadwork/bead/internal/ziparchive"
)

// Freeze-time shaped filename tail: date, T, 12 digits, numeric offset.
const timestampGlob = "_????????T????????????[-+]????.zip"

// Resolver finds beads by scanning the directory. Lookups resolved once are
// cached for the life of the process; the cache is advisory only, the files
// stay the source of truth.
type Resolver struct {
	dir string

	mu        sync.Mutex
	pathCache map[uint64]string
}

// New creates a resolver for the box directory.
func New(dir string) *Resolver {
	return &Resolver{dir: dir, pathCache: map[uint64]string{}}
}

func cacheKey(name, contentID string) uint64 {
	h := xxhash.New()
	h.WriteString(name)
	h.Write([]byte{0})
	h.WriteString(contentID)
	return h.Sum64()
}

// Beads returns all beads matching the conditions, sorted ascending by
// freeze time. Invalid archives in the directory are skipped.
func (r *Resolver) Beads(conditions []search.Condition, boxName string) ([]meta.Bead, error) {
	paths, err := r.candidatePaths(conditions)
	if err != nil {
		return nil, err
	}

	match := search.CompileMatch(conditions)
	var beads []meta.Bead
	for _, path := range paths {
		archive, err := ziparchive.Open(path, boxName)
		if err != nil {
			continue
		}
		r.remember(archive.Bead, path)
		if match(archive.Bead) {
			beads = append(beads, archive.Bead)
		}
	}
	return search.SortByFreezeTime(beads), nil
}

// candidatePaths narrows the directory walk to a name-directed glob when a
// single bead-name condition is present, avoiding loads of unrelated
// archives.
func (r *Resolver) candidatePaths(conditions []search.Condition) ([]string, error) {
	names := search.Query{Conditions: conditions}.NameValues()
	switch len(names) {
	case 0:
		return filepath.Glob(filepath.Join(r.dir, "*.zip"))
	case 1:
		return filepath.Glob(filepath.Join(r.dir, names[0]+timestampGlob))
	default:
		// disagreeing name equalities match nothing
		return nil, nil
	}
}

// FilePath resolves the storage location of a bead.
func (r *Resolver) FilePath(name, contentID string) (string, error) {
	key := cacheKey(name, contentID)
	r.mu.Lock()
	path, ok := r.pathCache[key]
	r.mu.Unlock()
	if ok {
		return path, nil
	}

	paths, err := filepath.Glob(filepath.Join(r.dir, name+timestampGlob))
	if err != nil {
		return "", err
	}
	for _, path := range paths {
		archive, err := ziparchive.Open(path, "")
		if err != nil {
			continue
		}
		r.remember(archive.Bead, path)
		if archive.Name == name && archive.ContentID == contentID {
			return path, nil
		}
	}
	return "", beaderrors.NewLookupError("bead not found: name=%q content_id=%q", name, contentID)
}

// NoteArchive records a freshly stored archive so later lookups can avoid a
// rescan. Invalid files are ignored.
func (r *Resolver) NoteArchive(path string) error {
	archive, err := ziparchive.Open(path, "")
	if err != nil {
		return nil
	}
	r.remember(archive.Bead, path)
	return nil
}

func (r *Resolver) remember(b meta.Bead, path string) {
	r.mu.Lock()
	r.pathCache[cacheKey(b.Name, b.ContentID)] = path
	r.mu.Unlock()
}
