// Package component defines the lifecycle contract shared by the long-lived
// parts of ollamacmd: the dispatcher, the SSE hub, the HTTP bridge and
// telemetry.
//
// A Registry starts components in registration order and stops them in
// reverse, so register dependencies first.
package component
