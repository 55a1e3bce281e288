package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Boxes)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := &Config{}
	require.NoError(t, cfg.AddBox("home", "/data/beads"))
	require.NoError(t, cfg.AddBox("archive", "/data/old-beads"))
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Boxes, 2)
	// sorted by name
	assert.Equal(t, "archive", loaded.Boxes[0].Name)
	assert.Equal(t, "home", loaded.Boxes[1].Name)

	def, ok := loaded.Box("home")
	require.True(t, ok)
	assert.Equal(t, "/data/beads", def.Directory)
}

func TestAddBox_RejectsDuplicatesAndEmpty(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.AddBox("home", "/data"))
	assert.Error(t, cfg.AddBox("home", "/elsewhere"))
	assert.Error(t, cfg.AddBox("", "/data"))
	assert.Error(t, cfg.AddBox("x", ""))
}

func TestForgetBox(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.AddBox("home", "/data"))
	assert.True(t, cfg.ForgetBox("home"))
	assert.False(t, cfg.ForgetBox("home"))
	_, ok := cfg.Box("home")
	assert.False(t, ok)
}

func TestLoad_BadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("boxes = not valid"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
