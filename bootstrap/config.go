package bootstrap

import (
	"github.com/kbukum/ollamacmd/config"
)

// Config is the constraint for application configuration types. Any struct
// embedding config.ServiceConfig gets GetServiceConfig by promotion and
// supplies its own ApplyDefaults and Validate for the extra sections.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
