package main

import (
	"fmt"

	"github.com/kbukum/ollamacmd/bridge"
	"github.com/kbukum/ollamacmd/config"
	"github.com/kbukum/ollamacmd/dispatch"
	"github.com/kbukum/ollamacmd/feedback"
	"github.com/kbukum/ollamacmd/observability"
	"github.com/kbukum/ollamacmd/process"
	"github.com/kbukum/ollamacmd/validation"
	"github.com/kbukum/ollamacmd/version"
)

const serviceName = "ollamacmd"

// AppConfig is the full configuration of the ollamacmd binary.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	feedback.Config      `yaml:",inline" mapstructure:",squash"`

	Ollama        process.Config       `yaml:"ollama" mapstructure:"ollama"`
	Dispatch      dispatch.Config      `yaml:"dispatch" mapstructure:"dispatch"`
	Bridge        bridge.Config        `yaml:"bridge" mapstructure:"bridge"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Config.ApplyDefaults()
	c.Ollama.ApplyDefaults()
	c.Dispatch.ApplyDefaults()
	c.Bridge.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks the service section, the struct tags and the bridge.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return c.Bridge.Validate()
}
