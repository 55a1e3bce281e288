// Package config persists the environment of the CLI: the registry of named
// boxes. The core packages never read it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// Config is the on-disk environment document.
type Config struct {
	Boxes []BoxDef `toml:"boxes"`
}

// BoxDef names one box directory.
type BoxDef struct {
	Name      string `toml:"name"`
	Directory string `toml:"directory"`
}

// DefaultPath locates the per-user config file.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "bead", "config.toml"), nil
}

// Load reads the config file. A missing file is an empty environment, not an
// error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("bad config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config file, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// AddBox registers a box directory under a unique name.
func (c *Config) AddBox(name, directory string) error {
	if name == "" || directory == "" {
		return fmt.Errorf("box name and directory must not be empty")
	}
	for _, b := range c.Boxes {
		if b.Name == name {
			return fmt.Errorf("box %q is already defined", name)
		}
	}
	c.Boxes = append(c.Boxes, BoxDef{Name: name, Directory: directory})
	sort.Slice(c.Boxes, func(i, j int) bool { return c.Boxes[i].Name < c.Boxes[j].Name })
	return nil
}

// ForgetBox removes a box definition. Reports whether it existed.
func (c *Config) ForgetBox(name string) bool {
	for i, b := range c.Boxes {
		if b.Name == name {
			c.Boxes = append(c.Boxes[:i], c.Boxes[i+1:]...)
			return true
		}
	}
	return false
}

// Box looks up a box definition by name.
func (c *Config) Box(name string) (BoxDef, bool) {
	for _, b := range c.Boxes {
		if b.Name == name {
			return b, true
		}
	}
	return BoxDef{}, false
}
