// Package ziparchive reads and writes bead archives: standard zip files with
// a fixed meta/ + code/ + data/ layout, a per-file digest manifest and a
// content identifier derived from the canonical content.
package ziparchive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	beaderrors "github.com/beadwork/bead/internal/errors"
	"github.com/beadwork/bead/internal/meta"
)

// Archive is a bead backed by a packed file on disk. The embedded Bead holds
// the metadata read from the archive; extraction operations additionally
// require a successful Validate on the same instance.
type Archive struct {
	meta.Bead

	Path        string
	MetaVersion string

	validated bool
}

// Open reads the metadata of the archive at path. The file handle is not
// kept; every operation reopens the archive. Any structural or parse problem
// yields an InvalidArchiveError.
func Open(archivePath, boxName string) (*Archive, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, beaderrors.NewInvalidArchive(archivePath, "not a zip file", err)
	}
	defer zr.Close()

	data, err := readEntry(&zr.Reader, BeadMetaPath)
	if err != nil {
		return nil, beaderrors.NewInvalidArchive(archivePath, "missing bead metadata", err)
	}
	m, err := decodeBeadMeta(data)
	if err != nil {
		return nil, beaderrors.NewInvalidArchive(archivePath, "bad bead metadata", err)
	}
	freezeTime, err := meta.ParseTimestamp(m.FreezeTime)
	if err != nil {
		return nil, beaderrors.NewInvalidArchive(archivePath, "bad freeze time", err)
	}

	return &Archive{
		Bead: meta.Bead{
			Name:          meta.BeadNameFromPath(archivePath),
			Kind:          m.Kind,
			ContentID:     m.ContentID,
			FreezeTimeStr: m.FreezeTime,
			FreezeTime:    freezeTime,
			Inputs:        m.Inputs,
			BoxName:       boxName,
		},
		Path:        archivePath,
		MetaVersion: m.MetaVersion,
	}, nil
}

// Validate recomputes the archive's content identity and per-file digests and
// compares them against the declared metadata. It is deterministic for a
// given file; extraction is refused until it has succeeded once.
func (a *Archive) Validate() error {
	zr, err := zip.OpenReader(a.Path)
	if err != nil {
		return beaderrors.NewInvalidArchive(a.Path, "not a zip file", err)
	}
	defer zr.Close()

	manifestData, err := readEntry(&zr.Reader, ManifestPath)
	if err != nil {
		return beaderrors.NewInvalidArchive(a.Path, "missing manifest", err)
	}
	declared, err := parseManifest(strings.NewReader(string(manifestData)))
	if err != nil {
		return beaderrors.NewInvalidArchive(a.Path, "bad manifest", err)
	}

	computed := map[string]string{}
	for _, f := range zr.File {
		name := path.Clean(f.Name)
		if f.FileInfo().IsDir() {
			continue
		}
		switch {
		case name == BeadMetaPath || name == ManifestPath:
			continue
		case strings.HasPrefix(name, CodeDir+"/") || strings.HasPrefix(name, DataDir+"/"):
			rc, err := f.Open()
			if err != nil {
				return beaderrors.NewInvalidArchive(a.Path, "unreadable entry "+name, err)
			}
			digest, err := fileDigest(rc)
			rc.Close()
			if err != nil {
				return beaderrors.NewInvalidArchive(a.Path, "unreadable entry "+name, err)
			}
			computed[name] = digest
		default:
			return beaderrors.NewInvalidArchive(a.Path, "unexpected entry "+name, nil)
		}
	}

	if len(computed) != len(declared) {
		return beaderrors.NewInvalidArchive(a.Path,
			fmt.Sprintf("manifest lists %d files, archive has %d", len(declared), len(computed)), nil)
	}
	for name, digest := range computed {
		want, ok := declared[name]
		if !ok {
			return beaderrors.NewInvalidArchive(a.Path, "entry not in manifest: "+name, nil)
		}
		if digest != want {
			return beaderrors.NewInvalidArchive(a.Path, "checksum mismatch for "+name, nil)
		}
	}

	if contentID := computeContentID(a.Kind, a.FreezeTimeStr, computed); contentID != a.ContentID {
		return beaderrors.NewInvalidArchive(a.Path, "content id mismatch", nil)
	}

	a.validated = true
	return nil
}

// ExtractTree extracts every file under the logical directory into fsDir,
// recreating the relative structure.
func (a *Archive) ExtractTree(logicalDir, fsDir string) error {
	if err := a.requireValidated(); err != nil {
		return err
	}
	prefix := strings.TrimSuffix(logicalDir, "/") + "/"

	zr, err := zip.OpenReader(a.Path)
	if err != nil {
		return beaderrors.NewInvalidArchive(a.Path, "not a zip file", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		name := path.Clean(f.Name)
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		rel := strings.TrimPrefix(name, prefix)
		if !filepath.IsLocal(rel) {
			return beaderrors.NewInvalidArchive(a.Path, "unsafe entry path "+f.Name, nil)
		}
		if err := extractTo(f, filepath.Join(fsDir, filepath.FromSlash(rel))); err != nil {
			return err
		}
	}
	return nil
}

// ExtractFile extracts a single logical path to fsPath.
func (a *Archive) ExtractFile(logicalPath, fsPath string) error {
	if err := a.requireValidated(); err != nil {
		return err
	}
	zr, err := zip.OpenReader(a.Path)
	if err != nil {
		return beaderrors.NewInvalidArchive(a.Path, "not a zip file", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if path.Clean(f.Name) == path.Clean(logicalPath) && !f.FileInfo().IsDir() {
			return extractTo(f, fsPath)
		}
	}
	return beaderrors.NewLookupError("no entry %q in archive %s", logicalPath, a.Path)
}

// UnpackCodeTo extracts the code tree into fsDir.
func (a *Archive) UnpackCodeTo(fsDir string) error {
	return a.ExtractTree(CodeDir, fsDir)
}

// UnpackDataTo extracts the data tree into fsDir.
func (a *Archive) UnpackDataTo(fsDir string) error {
	return a.ExtractTree(DataDir, fsDir)
}

func (a *Archive) requireValidated() error {
	if !a.validated {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func readEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if path.Clean(f.Name) == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("no entry %q", name)
}

func extractTo(f *zip.File, fsPath string) error {
	if err := os.MkdirAll(filepath.Dir(fsPath), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(fsPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
