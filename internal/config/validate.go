package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateAssignment(); err != nil {
		return err
	}
	if err := c.validateAnnotators(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDataset() error {
	if c.Dataset.Path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/cadence/config.toml"
		}
		return fmt.Errorf("dataset.path is required: edit %s (create with 'cadence config init')", defaultPath)
	}
	switch c.Dataset.Mode {
	case "pairwise", "battle":
	default:
		return fmt.Errorf("dataset.mode must be \"pairwise\" or \"battle\", got %q", c.Dataset.Mode)
	}
	return nil
}

func (c *Config) validateAssignment() error {
	if c.Assignment.PoolSize < 1 {
		return errors.New("assignment.pool_size must be at least 1")
	}
	if c.Assignment.OverlapRate < 0 || c.Assignment.OverlapRate > 1 {
		return errors.New("assignment.overlap_rate must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateAnnotators() error {
	if len(c.Annotators) == 0 {
		return errors.New("at least one [[annotators]] entry is required")
	}
	names := make(map[string]bool)
	ids := make(map[string]bool)
	slots := make(map[int]string)
	groundTruth := 0
	for _, a := range c.Annotators {
		if a.Name == "" {
			return errors.New("every annotator needs a name")
		}
		if names[a.Name] {
			return fmt.Errorf("duplicate annotator name %q", a.Name)
		}
		names[a.Name] = true
		if ids[a.ID] {
			return fmt.Errorf("duplicate annotator id %q", a.ID)
		}
		ids[a.ID] = true
		if a.Passcode == "" {
			return fmt.Errorf("annotator %q has no passcode: set it in the config or export %s", a.Name, passcodeEnvVar(a.Name))
		}
		switch a.Role {
		case RoleAnnotator:
			if a.Slot < 0 || a.Slot >= c.Assignment.PoolSize {
				return fmt.Errorf("annotator %q has slot %d, outside pool of %d", a.Name, a.Slot, c.Assignment.PoolSize)
			}
			if holder, taken := slots[a.Slot]; taken {
				return fmt.Errorf("annotators %q and %q share slot %d", holder, a.Name, a.Slot)
			}
			slots[a.Slot] = a.Name
		case RoleGroundTruth:
			groundTruth++
		default:
			return fmt.Errorf("annotator %q has unknown role %q", a.Name, a.Role)
		}
	}
	if groundTruth > 1 {
		return errors.New("at most one annotator may hold the groundtruth role")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format %q is not one of console, json, auto", c.Logging.Format)
	}
	return nil
}
