package bridge

import (
	"fmt"

	"github.com/kbukum/ollamacmd/auth/jwt"
	"github.com/kbukum/ollamacmd/server"
	"github.com/kbukum/ollamacmd/sse"
)

// Config configures the HTTP bridge.
type Config struct {
	server.Config `yaml:",inline" mapstructure:",squash"`

	JWT jwt.Config `yaml:"jwt" mapstructure:"jwt"`
	// ClientBuffer is the number of events an SSE client may lag behind.
	ClientBuffer int `yaml:"client_buffer" mapstructure:"client_buffer" validate:"gte=0"`
	// RateLimit caps commands per minute per session. Zero disables it.
	RateLimit int `yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	c.Config.ApplyDefaults()
	c.JWT.ApplyDefaults()
	if c.ClientBuffer == 0 {
		c.ClientBuffer = sse.DefaultClientBuffer
	}
}

// Validate checks the server and token settings.
func (c *Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if err := c.JWT.Validate(); err != nil {
		return fmt.Errorf("bridge.%w", err)
	}
	return nil
}
