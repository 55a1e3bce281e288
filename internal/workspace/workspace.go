// Package workspace holds the minimal working-directory model needed to
// freeze beads: a directory with bead metadata, an output tree for computed
// data and scratch space. The interactive edit flow (unpacking inputs into
// the directory) lives outside the core.
package workspace

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/beadwork/bead/internal/meta"
	"github.com/beadwork/bead/internal/ziparchive"
)

// Directory layout inside a workspace.
const (
	InputDir  = "input"
	OutputDir = "output"
	TempDir   = "temp"
	MetaDir   = ".bead-meta"

	metaFile = MetaDir + "/bead"
)

const metaVersion = "2"

// workspaceMeta is the JSON document at .bead-meta/bead.
type workspaceMeta struct {
	MetaVersion string           `json:"meta_version"`
	Kind        string           `json:"kind"`
	Inputs      []meta.InputSpec `json:"inputs"`
}

// Workspace is an editable directory that can be frozen into an archive.
type Workspace struct {
	dir string
	m   workspaceMeta
}

// NewKind generates a fresh kind identifier for a brand new bead lineage.
func NewKind() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf[:])
}

// Create initializes a new workspace directory with the given kind.
func Create(dir, kind string) (*Workspace, error) {
	for _, sub := range []string{InputDir, OutputDir, TempDir, MetaDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, err
		}
	}
	ws := &Workspace{dir: dir, m: workspaceMeta{MetaVersion: metaVersion, Kind: kind}}
	if err := ws.saveMeta(); err != nil {
		return nil, err
	}
	return ws, nil
}

// Open loads an existing workspace.
func Open(dir string) (*Workspace, error) {
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(metaFile)))
	if err != nil {
		return nil, fmt.Errorf("not a workspace: %w", err)
	}
	var m workspaceMeta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("bad workspace metadata: %w", err)
	}
	if m.Kind == "" {
		return nil, fmt.Errorf("bad workspace metadata: missing kind")
	}
	return &Workspace{dir: dir, m: m}, nil
}

// Name is the workspace directory's base name; it becomes the bead name.
func (ws *Workspace) Name() string {
	abs, err := filepath.Abs(ws.dir)
	if err != nil {
		return filepath.Base(ws.dir)
	}
	return filepath.Base(abs)
}

// Kind returns the lineage identifier.
func (ws *Workspace) Kind() string { return ws.m.Kind }

// Directory returns the workspace location.
func (ws *Workspace) Directory() string { return ws.dir }

// Inputs returns the recorded input references, ordered by alias.
func (ws *Workspace) Inputs() []meta.InputSpec {
	inputs := make([]meta.InputSpec, len(ws.m.Inputs))
	copy(inputs, ws.m.Inputs)
	return inputs
}

// SetInput records (or replaces) an input reference under its alias.
func (ws *Workspace) SetInput(spec meta.InputSpec) error {
	inputs := ws.m.Inputs[:0:0]
	for _, in := range ws.m.Inputs {
		if in.Name != spec.Name {
			inputs = append(inputs, in)
		}
	}
	inputs = append(inputs, spec)
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Name < inputs[j].Name })
	ws.m.Inputs = inputs
	return ws.saveMeta()
}

// DeleteInput removes the input recorded under the alias, if any.
func (ws *Workspace) DeleteInput(alias string) error {
	inputs := ws.m.Inputs[:0:0]
	for _, in := range ws.m.Inputs {
		if in.Name != alias {
			inputs = append(inputs, in)
		}
	}
	ws.m.Inputs = inputs
	return ws.saveMeta()
}

func (ws *Workspace) saveMeta() error {
	data, err := json.MarshalIndent(ws.m, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(ws.dir, filepath.FromSlash(metaFile)), data, 0o644)
}

// Pack freezes the workspace into archivePath: workspace root files become
// the code tree (inputs, outputs, scratch and metadata excluded), output/
// becomes the data tree. Returns the content id of the packed archive.
func (ws *Workspace) Pack(archivePath, freezeTimeStr string) (string, error) {
	if _, err := meta.ParseTimestamp(freezeTimeStr); err != nil {
		return "", err
	}
	dataDir := filepath.Join(ws.dir, OutputDir)
	if _, err := os.Stat(dataDir); err != nil {
		dataDir = ""
	}
	return ziparchive.Pack(archivePath, ziparchive.PackSpec{
		Kind:       ws.m.Kind,
		FreezeTime: freezeTimeStr,
		Inputs:     ws.Inputs(),
		CodeDir:    ws.dir,
		DataDir:    dataDir,
		Exclude: []string{
			InputDir + "/**",
			OutputDir + "/**",
			TempDir + "/**",
			MetaDir + "/**",
		},
	})
}
