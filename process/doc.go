// Package process supervises one run of the external ollama executable.
//
// A Runner launches `ollama <subcommand> [arg]`, drains standard output and
// standard error concurrently into a feedback.Sink, bounds the whole run
// with a single deadline and reports exactly one terminal message together
// with the Result.
//
// The deadline starts at launch and races the stream drains as well as the
// exit wait. When it fires, the process group is killed and the pipes are
// closed, so a child that keeps its output open can never hold the runner.
package process
