package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"cadence/internal/snapshot"
)

//go:embed sample_config.toml
var sampleConfig string

// Annotator roles.
const (
	RoleAnnotator   = "annotator"
	RoleGroundTruth = "groundtruth"
)

// Dataset configures the candidate collection source.
type Dataset struct {
	// Path is the CSV file holding one row per clip.
	Path string `toml:"path"`
	// ID is the declared dataset identifier, which doubles as the assignment
	// salt. Defaults to the file's base name.
	ID string `toml:"id"`
	// MediaBaseDir resolves relative media references.
	MediaBaseDir string `toml:"media_base_dir"`
	// Mode selects the labeling variant: "pairwise" or "battle".
	Mode string `toml:"mode"`
}

// Assignment configures the owner-slot pool.
type Assignment struct {
	PoolSize    int     `toml:"pool_size"`
	OverlapRate float64 `toml:"overlap_rate"`
}

// Annotator is one roster entry. Slot is the owner slot the identity labels
// for; the ground-truth role additionally unlocks reconciliation.
type Annotator struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	Passcode string `toml:"passcode"`
	Slot     int    `toml:"slot"`
	Role     string `toml:"role"`
}

// Paths contains directory and bind address configuration.
type Paths struct {
	LogDir      string `toml:"log_dir"`
	ExportDir   string `toml:"export_dir"`
	JournalPath string `toml:"journal_path"`
	APIBind     string `toml:"api_bind"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full Cadence configuration.
type Config struct {
	Dataset    Dataset     `toml:"dataset"`
	Assignment Assignment  `toml:"assignment"`
	Paths      Paths       `toml:"paths"`
	Logging    Logging     `toml:"logging"`
	Annotators []Annotator `toml:"annotators"`
}

// DefaultConfigPath returns the canonical config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "cadence", "config.toml"), nil
}

// Load reads the config file at path (or the default location when path is
// empty), applies defaults, normalizes, and validates. A missing file at the
// default location yields defaults — which then fail validation with a
// message pointing at 'cadence config init'.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// Fall through with defaults.
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample config to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing config at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, c.Paths.ExportDir, filepath.Dir(c.Paths.JournalPath)}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FindAnnotator looks a roster entry up by name.
func (c *Config) FindAnnotator(name string) (Annotator, bool) {
	for _, a := range c.Annotators {
		if a.Name == name {
			return a, true
		}
	}
	return Annotator{}, false
}

// GroundTruth returns the distinguished ground-truth roster entry, if any.
func (c *Config) GroundTruth() (Annotator, bool) {
	for _, a := range c.Annotators {
		if a.Role == RoleGroundTruth {
			return a, true
		}
	}
	return Annotator{}, false
}

// Identity converts a roster entry into the snapshot identity descriptor.
func (a Annotator) Identity() snapshot.Identity {
	return snapshot.Identity{ID: a.ID, Name: a.Name, Role: a.Role, Slot: a.Slot}
}

// Mode returns the configured labeling variant as a snapshot mode.
func (c *Config) Mode() snapshot.Mode {
	return snapshot.Mode(c.Dataset.Mode)
}
