// Package boxindex maintains the persistent side-index of a box directory:
// a single .index.sqlite file with one row per bead. The index is derived
// state; the archive files stay the durable truth and the index can always
// be rebuilt from them.
package boxindex

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	beaderrors "github.com/beadwork/bead/internal/errors"
	"github.com/beadwork/bead/internal/meta"
	"github.com/beadwork/bead/internal/ziparchive"
)

// IndexFileName is the index file inside the box directory. The schema is
// part of the contract; other processes rely on the column names and types.
const IndexFileName = ".index.sqlite"

// Long busy timeout: the index may live on a slow networked filesystem.
const busyTimeoutMillis = 10_000

var schema = []string{`
CREATE TABLE IF NOT EXISTS beads (
    name             TEXT    NOT NULL,
    content_id       TEXT    NOT NULL,
    kind             TEXT    NOT NULL,
    freeze_time_str  TEXT    NOT NULL,
    freeze_time_unix INTEGER NOT NULL,
    file_path        TEXT    NOT NULL UNIQUE,
    inputs_blob      TEXT    NOT NULL,
    PRIMARY KEY (name, content_id)
)`, `
CREATE INDEX IF NOT EXISTS idx_beads_freeze_time ON beads(freeze_time_unix)`,
}

// Index is a handle on the side-index of one box directory. Connections are
// short-lived: every operation opens, works and closes. The store's own
// locking arbitrates between processes; one writer at a time is assumed.
type Index struct {
	dir  string
	path string
}

// New creates a handle for the index of the box directory. Nothing is
// touched until an operation runs.
func New(dir string) *Index {
	return &Index{dir: dir, path: filepath.Join(dir, IndexFileName)}
}

// Path returns the index file location.
func (ix *Index) Path() string { return ix.path }

func (ix *Index) dsn(readOnly bool) string {
	mode := "rwc"
	if readOnly {
		mode = "ro"
	}
	return fmt.Sprintf("file:%s?mode=%s&_pragma=busy_timeout(%d)",
		filepath.ToSlash(ix.path), mode, busyTimeoutMillis)
}

func (ix *Index) open(readOnly bool) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ix.dsn(readOnly))
	if err != nil {
		return nil, beaderrors.NewBoxIndexError("open", err)
	}
	return db, nil
}

// EnsureExists idempotently creates the index file and its schema.
func (ix *Index) EnsureExists() error {
	db, err := ix.open(false)
	if err != nil {
		return err
	}
	defer db.Close()
	return execSchema(db)
}

func execSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return beaderrors.NewBoxIndexError("create schema", err)
		}
	}
	return nil
}

// IndexOne validates and indexes a single archive, replacing any previous
// row for the same bead or the same file path.
func (ix *Index) IndexOne(archivePath string) error {
	db, err := ix.open(false)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := execSchema(db); err != nil {
		return err
	}
	return ix.indexOne(db, archivePath)
}

// indexOne loads, validates and upserts one archive. Validation failures
// come back as InvalidArchiveError, store failures as BoxIndexError.
func (ix *Index) indexOne(db *sql.DB, archivePath string) error {
	archive, err := ziparchive.Open(archivePath, "")
	if err != nil {
		return err
	}
	if err := archive.Validate(); err != nil {
		return err
	}

	relPath, err := filepath.Rel(ix.dir, archivePath)
	if err != nil {
		relPath = archivePath
	}
	inputsBlob, err := json.Marshal(archive.Inputs)
	if err != nil {
		return beaderrors.NewBoxIndexError("encode inputs", err)
	}

	_, err = db.Exec(`
		INSERT OR REPLACE INTO beads
		(name, content_id, kind, freeze_time_str, freeze_time_unix, file_path, inputs_blob)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		archive.Name,
		archive.ContentID,
		archive.Kind,
		archive.FreezeTimeStr,
		meta.TimestampMicros(archive.FreezeTime),
		filepath.ToSlash(relPath),
		string(inputsBlob),
	)
	if err != nil {
		return beaderrors.NewBoxIndexError("insert", err)
	}
	return nil
}

// FilePath resolves the storage location recorded for a bead.
func (ix *Index) FilePath(name, contentID string) (string, error) {
	db, err := ix.open(true)
	if err != nil {
		return "", err
	}
	defer db.Close()

	var relPath string
	err = db.QueryRow(
		`SELECT file_path FROM beads WHERE name = ? AND content_id = ?`,
		name, contentID,
	).Scan(&relPath)
	switch {
	case err == sql.ErrNoRows:
		return "", beaderrors.NewLookupError("bead not found: name=%q content_id=%q", name, contentID)
	case err != nil:
		return "", beaderrors.NewBoxIndexError("lookup", err)
	}
	return filepath.Join(ix.dir, filepath.FromSlash(relPath)), nil
}

// indexedFilePaths returns the set of file paths currently recorded.
func (ix *Index) indexedFilePaths(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT file_path FROM beads`)
	if err != nil {
		return nil, beaderrors.NewBoxIndexError("enumerate", err)
	}
	defer rows.Close()

	paths := map[string]bool{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, beaderrors.NewBoxIndexError("enumerate", err)
		}
		paths[p] = true
	}
	if err := rows.Err(); err != nil {
		return nil, beaderrors.NewBoxIndexError("enumerate", err)
	}
	return paths, nil
}

// archiveFiles lists the *.zip files of the box directory, index-relative.
func (ix *Index) archiveFiles() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(ix.dir, "*.zip"))
	if err != nil {
		return nil, err
	}
	rel := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(ix.dir, p)
		if err != nil {
			r = p
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	return rel, nil
}

// Remove deletes the index file. Used by Rebuild and recovery paths.
func (ix *Index) Remove() error {
	if err := os.Remove(ix.path); err != nil && !os.IsNotExist(err) {
		return beaderrors.NewBoxIndexError("remove", err)
	}
	return nil
}
