package jwt

import (
	"errors"
	"time"
)

// minSecretLen is the shortest HMAC secret accepted.
const minSecretLen = 16

// Config configures bridge tokens. An empty Secret disables authentication.
type Config struct {
	// Secret is the HS256 signing key.
	Secret string `yaml:"secret" mapstructure:"secret"`
	// Issuer is the "iss" claim, checked on parse when set.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
	// TTL is the lifetime of tokens minted by Generate (default 24h).
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"gte=0"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.TTL == 0 {
		c.TTL = 24 * time.Hour
	}
	if c.Issuer == "" {
		c.Issuer = "ollamacmd"
	}
}

// Enabled reports whether a secret is configured.
func (c *Config) Enabled() bool { return c.Secret != "" }

// Validate checks the secret when authentication is enabled.
func (c *Config) Validate() error {
	if c.Enabled() && len(c.Secret) < minSecretLen {
		return errors.New("jwt: secret must be at least 16 bytes")
	}
	if c.TTL < 0 {
		return errors.New("jwt: ttl must be non-negative")
	}
	return nil
}
