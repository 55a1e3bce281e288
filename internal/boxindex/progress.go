package boxindex

import (
	"errors"
	"iter"
	"path/filepath"
	"sort"

	beaderrors "github.com/beadwork/bead/internal/errors"
)

// isFatal separates store-level failures (abort the stream) from per-file
// problems (count and continue).
func isFatal(err error) bool {
	var indexErr *beaderrors.BoxIndexError
	return errors.As(err, &indexErr)
}

// Progress is one record of a rebuild or sync stream: one per processed
// file. Err carries the per-file failure, if any; ErrorCount accumulates.
type Progress struct {
	Total      int
	Processed  int
	Path       string
	ErrorCount int
	Err        error
}

// Rebuild deletes the index and re-indexes every archive in the directory.
// The returned iterator yields one Progress per file; per-file failures are
// counted and the stream continues. A store-level failure terminates the
// stream with a BoxIndexError in the error position. Each insertion commits
// individually, so an abandoned iterator leaves a usable partial index.
func (ix *Index) Rebuild() iter.Seq2[Progress, error] {
	return func(yield func(Progress, error) bool) {
		if err := ix.Remove(); err != nil {
			yield(Progress{}, err)
			return
		}
		if err := ix.EnsureExists(); err != nil {
			yield(Progress{}, err)
			return
		}

		files, err := ix.archiveFiles()
		if err != nil {
			yield(Progress{}, err)
			return
		}

		db, err := ix.open(false)
		if err != nil {
			yield(Progress{}, err)
			return
		}
		defer db.Close()

		errorCount := 0
		for i, relPath := range files {
			fileErr := ix.indexOne(db, filepath.Join(ix.dir, filepath.FromSlash(relPath)))
			if isFatal(fileErr) {
				yield(Progress{}, fileErr)
				return
			}
			if fileErr != nil {
				errorCount++
			}
			ok := yield(Progress{
				Total:      len(files),
				Processed:  i + 1,
				Path:       relPath,
				ErrorCount: errorCount,
				Err:        fileErr,
			}, nil)
			if !ok {
				return
			}
		}
	}
}

// Sync diffs the directory's archives against the indexed file paths:
// missing files are removed from the index, unknown files are indexed. The
// progress contract matches Rebuild. Applying Sync twice is a no-op.
func (ix *Index) Sync() iter.Seq2[Progress, error] {
	return func(yield func(Progress, error) bool) {
		if err := ix.EnsureExists(); err != nil {
			yield(Progress{}, err)
			return
		}

		db, err := ix.open(false)
		if err != nil {
			yield(Progress{}, err)
			return
		}
		defer db.Close()

		indexed, err := ix.indexedFilePaths(db)
		if err != nil {
			yield(Progress{}, err)
			return
		}
		files, err := ix.archiveFiles()
		if err != nil {
			yield(Progress{}, err)
			return
		}
		onDisk := map[string]bool{}
		for _, f := range files {
			onDisk[f] = true
		}

		var orphaned, added []string
		for p := range indexed {
			if !onDisk[p] {
				orphaned = append(orphaned, p)
			}
		}
		sort.Strings(orphaned)
		for _, f := range files {
			if !indexed[f] {
				added = append(added, f)
			}
		}

		total := len(orphaned) + len(added)
		processed := 0
		errorCount := 0

		emit := func(relPath string, fileErr error) bool {
			if fileErr != nil {
				errorCount++
			}
			processed++
			return yield(Progress{
				Total:      total,
				Processed:  processed,
				Path:       relPath,
				ErrorCount: errorCount,
				Err:        fileErr,
			}, nil)
		}

		for _, relPath := range orphaned {
			_, err := db.Exec(`DELETE FROM beads WHERE file_path = ?`, relPath)
			if err != nil {
				yield(Progress{}, beaderrors.NewBoxIndexError("delete", err))
				return
			}
			if !emit(relPath, nil) {
				return
			}
		}
		for _, relPath := range added {
			fileErr := ix.indexOne(db, filepath.Join(ix.dir, filepath.FromSlash(relPath)))
			if isFatal(fileErr) {
				yield(Progress{}, fileErr)
				return
			}
			if !emit(relPath, fileErr) {
				return
			}
		}
	}
}
