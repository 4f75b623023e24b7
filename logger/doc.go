// Package logger provides structured logging for ollamacmd using zerolog.
//
// It supports JSON and console output, log level configuration and
// component-scoped loggers with structured fields. Logs go to stderr by
// default so they never mix with the feedback lines written to stdout.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.Get("process")
//	log.Info("invocation finished", logger.Fields("subcommand", "list", "exit_code", 0))
package logger
