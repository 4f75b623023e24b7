// Package feedback carries the lines a command produces back to whoever
// issued it. A Message is either literal process output or a catalog key
// that a Translator renders in the configured locale; a Sink receives
// messages as they happen.
package feedback
