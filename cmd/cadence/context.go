package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cadence/internal/config"
	"cadence/internal/dataset"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	datasetOnce sync.Once
	collection  *dataset.Collection
	datasetErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureCollection() (*dataset.Collection, error) {
	c.datasetOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.datasetErr = err
			return
		}
		col, err := dataset.LoadFile(cfg.Dataset.Path, cfg.Dataset.ID)
		if err != nil {
			c.datasetErr = err
			return
		}
		c.collection = col
	})
	return c.collection, c.datasetErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
