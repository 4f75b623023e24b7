// Package config loads ollamacmd configuration with Viper.
//
// Values come from, in increasing priority: a config.yml found in the
// standard locations (or given explicitly), a .env file, and the process
// environment. Environment variables map onto nested keys by splitting on
// underscores, so OLLAMA_TIMEOUT sets ollama.timeout and
// DISPATCH_QUEUE_SIZE sets dispatch.queue_size. Only keys the target struct
// declares are bound.
package config
