package process

import (
	"time"
)

const (
	// DefaultBinary is the executable looked up on PATH.
	DefaultBinary = "ollama"
	// DefaultTimeout bounds one invocation.
	DefaultTimeout = 30 * time.Second
	// DefaultErrorPrefix marks lines read from standard error.
	DefaultErrorPrefix = "[Ollama Error] "
	// DefaultMaxLineBytes is the longest line a drain accepts.
	DefaultMaxLineBytes = 1 << 20
	// DefaultGracePeriod is the wait between SIGTERM and SIGKILL.
	DefaultGracePeriod = 2 * time.Second
)

// Config configures a Runner.
type Config struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string `yaml:"binary" mapstructure:"binary" validate:"required"`
	// Timeout bounds each invocation. Zero selects DefaultTimeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	// Timeouts overrides Timeout per sub-command name. A zero entry disables
	// the bound for that sub-command.
	Timeouts map[string]time.Duration `yaml:"timeouts" mapstructure:"timeouts"`
	// ErrorPrefix is prepended to every standard error line.
	ErrorPrefix string `yaml:"error_prefix" mapstructure:"error_prefix"`
	// MaxLineBytes caps a single output line.
	MaxLineBytes int `yaml:"max_line_bytes" mapstructure:"max_line_bytes" validate:"gte=0"`
	// GracePeriod is how long to wait after SIGTERM before SIGKILL.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period" validate:"gte=0"`
	// Env is additional environment variables (key=value) merged with os.Environ.
	Env []string `yaml:"env" mapstructure:"env"`
	// Dir is the working directory. If empty, uses the current directory.
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = DefaultBinary
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ErrorPrefix == "" {
		c.ErrorPrefix = DefaultErrorPrefix
	}
	if c.MaxLineBytes == 0 {
		c.MaxLineBytes = DefaultMaxLineBytes
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = DefaultGracePeriod
	}
}

// TimeoutFor returns the bound for a sub-command.
func (c *Config) TimeoutFor(sub SubCommand) time.Duration {
	if d, ok := c.Timeouts[sub.String()]; ok {
		return d
	}
	return c.Timeout
}
