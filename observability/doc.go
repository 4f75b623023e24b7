// Package observability wires OpenTelemetry tracing and metrics for
// ollamacmd.
//
// Every command invocation gets a span and is counted by subcommand and
// terminal status. When telemetry is disabled the global no-op providers
// stay in place and the helpers cost next to nothing.
package observability
