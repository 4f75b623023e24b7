// Package command turns chat-style lines such as "/ollama list" or
// "ollama model llama3" into supervised invocations.
//
// Process-backed sub-commands are acknowledged immediately with a running
// status and executed on the dispatcher. "model" is answered synchronously
// from the model registry.
package command
