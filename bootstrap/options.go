package bootstrap

import (
	"io"
	"os"
	"time"

	"github.com/kbukum/ollamacmd/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout time.Duration
	signals         []os.Signal
	summary         io.Writer
	components      []string
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger uses l instead of a logger built from the config's Logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithComponentLoggers registers a logger.Get entry per name, derived from
// the app logger.
func WithComponentLoggers(names ...string) Option {
	return func(o *appOptions) {
		o.components = append(o.components, names...)
	}
}

// WithGracefulTimeout bounds shutdown: hooks plus component Stop calls.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = d
	}
}

// WithSignals replaces the signals that end Run and cancel RunTask.
// An empty list disables signal handling.
func WithSignals(sigs ...os.Signal) Option {
	return func(o *appOptions) {
		if sigs == nil {
			sigs = []os.Signal{}
		}
		o.signals = sigs
	}
}

// WithSummary prints the startup tree to w once startup completes.
func WithSummary(w io.Writer) Option {
	return func(o *appOptions) {
		o.summary = w
	}
}
