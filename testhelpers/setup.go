// Package testhelpers builds real bead fixtures for tests: workspaces,
// packed archives and populated box directories.
package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/beadwork/bead/internal/meta"
	"github.com/beadwork/bead/internal/workspace"
	"github.com/beadwork/bead/internal/ziparchive"
)

// BeadSpec describes one archive to create.
type BeadSpec struct {
	Name       string
	Kind       string
	FreezeTime string
	Inputs     []meta.InputSpec
	// Content differentiates the code tree; defaults to Name.
	Content string
}

// StoreBead packs a fresh archive for spec into boxDir and returns its path.
func StoreBead(t *testing.T, boxDir string, spec BeadSpec) string {
	t.Helper()

	content := spec.Content
	if content == "" {
		content = spec.Name
	}
	ws := MakeWorkspace(t, spec.Name, spec.Kind, content, spec.Inputs)

	archivePath := filepath.Join(boxDir, spec.Name+"_"+spec.FreezeTime+".zip")
	if _, err := ws.Pack(archivePath, spec.FreezeTime); err != nil {
		t.Fatalf("pack %s: %v", spec.Name, err)
	}
	return archivePath
}

// MakeWorkspace creates a workspace named name with one code file and one
// output file.
func MakeWorkspace(t *testing.T, name, kind, content string, inputs []meta.InputSpec) *workspace.Workspace {
	t.Helper()

	dir := filepath.Join(t.TempDir(), name)
	ws, err := workspace.Create(dir, kind)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte("echo "+content+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, workspace.OutputDir, "result.txt"), []byte(content+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, in := range inputs {
		if err := ws.SetInput(in); err != nil {
			t.Fatal(err)
		}
	}
	return ws
}

// OpenArchive opens a stored archive, failing the test on error.
func OpenArchive(t *testing.T, path, boxName string) *ziparchive.Archive {
	t.Helper()
	archive, err := ziparchive.Open(path, boxName)
	if err != nil {
		t.Fatalf("open archive %s: %v", path, err)
	}
	return archive
}

// WriteJunk drops a non-archive file into dir.
func WriteJunk(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("this is not a bead\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// MustParse parses a canonical timestamp string.
func MustParse(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := meta.ParseTimestamp(s)
	if err != nil {
		t.Fatalf("parse timestamp %q: %v", s, err)
	}
	return v
}
