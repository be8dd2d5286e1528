package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Normalize expands paths, fills derived fields, and applies environment
// fallbacks. It runs before Validate.
func (c *Config) Normalize() error {
	var err error
	if c.Dataset.Path, err = expandPath(c.Dataset.Path); err != nil {
		return err
	}
	if c.Dataset.MediaBaseDir, err = expandPath(c.Dataset.MediaBaseDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return err
	}
	if c.Paths.JournalPath, err = expandPath(c.Paths.JournalPath); err != nil {
		return err
	}

	if c.Dataset.ID == "" && c.Dataset.Path != "" {
		base := filepath.Base(c.Dataset.Path)
		c.Dataset.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	c.Dataset.Mode = strings.ToLower(strings.TrimSpace(c.Dataset.Mode))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	for i := range c.Annotators {
		a := &c.Annotators[i]
		a.Name = strings.TrimSpace(a.Name)
		if a.ID == "" {
			a.ID = strings.ToLower(strings.ReplaceAll(a.Name, " ", "-"))
		}
		if a.Role == "" {
			a.Role = RoleAnnotator
		}
		a.Role = strings.ToLower(strings.TrimSpace(a.Role))
		if a.Passcode == "" {
			a.Passcode = os.Getenv(passcodeEnvVar(a.Name))
		}
	}
	return nil
}

// passcodeEnvVar returns the environment fallback variable for a roster
// entry, e.g. CADENCE_PASSCODE_ANA.
func passcodeEnvVar(name string) string {
	cleaned := strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_").Replace(strings.TrimSpace(name)))
	return "CADENCE_PASSCODE_" + cleaned
}

// ExpandPath resolves a leading tilde against the user's home directory and
// cleans the result.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", path, err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return filepath.Clean(path), nil
}
