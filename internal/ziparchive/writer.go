package ziparchive

import (
	"archive/zip"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/beadwork/bead/internal/meta"
)

// PackSpec describes the content of an archive to be written. CodeDir is
// required; DataDir may be empty for beads with no output yet. Exclude
// patterns are doublestar globs matched against paths relative to CodeDir.
type PackSpec struct {
	Kind       string
	FreezeTime string
	Inputs     []meta.InputSpec
	CodeDir    string
	DataDir    string
	Exclude    []string
}

// Pack writes a bead archive to archivePath and returns the content id of
// the packed content. Identical content packed with an identical declared
// freeze time yields an identical content id.
func Pack(archivePath string, spec PackSpec) (string, error) {
	out, err := os.Create(archivePath)
	if err != nil {
		return "", err
	}
	zw := zip.NewWriter(out)

	digests := map[string]string{}
	if err := packTree(zw, spec.CodeDir, CodeDir, spec.Exclude, digests); err != nil {
		zw.Close()
		out.Close()
		os.Remove(archivePath)
		return "", err
	}
	if spec.DataDir != "" {
		if err := packTree(zw, spec.DataDir, DataDir, nil, digests); err != nil {
			zw.Close()
			out.Close()
			os.Remove(archivePath)
			return "", err
		}
	}

	contentID := computeContentID(spec.Kind, spec.FreezeTime, digests)

	metaDoc, err := encodeBeadMeta(beadMeta{
		MetaVersion: MetaVersion,
		Kind:        spec.Kind,
		ContentID:   contentID,
		FreezeTime:  spec.FreezeTime,
		Inputs:      spec.Inputs,
	})
	if err == nil {
		err = writeEntry(zw, BeadMetaPath, metaDoc)
	}
	if err == nil {
		err = writeEntry(zw, ManifestPath, []byte(formatManifest(digests)))
	}
	if err == nil {
		err = zw.SetComment(ArchiveComment)
	}
	if err == nil {
		err = zw.Close()
	} else {
		zw.Close()
	}
	if err == nil {
		err = out.Close()
	} else {
		out.Close()
	}
	if err != nil {
		os.Remove(archivePath)
		return "", err
	}
	return contentID, nil
}

// packTree streams every file under srcDir into the archive below dstPrefix,
// hashing as it copies.
func packTree(zw *zip.Writer, srcDir, dstPrefix string, exclude []string, digests map[string]string) error {
	return filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range exclude {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return nil
			}
		}

		in, err := os.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()

		logical := path.Join(dstPrefix, rel)
		w, err := zw.Create(logical)
		if err != nil {
			return err
		}
		h := sha512.New()
		if _, err := io.Copy(w, io.TeeReader(in, h)); err != nil {
			return err
		}
		digests[logical] = hex.EncodeToString(h.Sum(nil))
		return nil
	})
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
