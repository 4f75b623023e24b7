package feedback

import "strings"

// Stream identifies where a message came from.
type Stream string

const (
	// StreamStatus marks messages produced by ollamacmd itself.
	StreamStatus Stream = "status"
	// StreamStdout marks a line read from the process's standard output.
	StreamStdout Stream = "stdout"
	// StreamStderr marks a line read from the process's standard error.
	StreamStderr Stream = "stderr"
)

// Message keys understood by the catalog.
const (
	KeyGenericError  = "command.ollama.error.generic"
	KeyModelNotFound = "command.ollama.error.model_not_found"
	KeyTimeout       = "command.ollama.error.timeout"
	KeyBusy          = "command.ollama.error.busy"
	KeyUsage         = "command.ollama.error.usage"

	KeyListRunning    = "command.ollama.status.list_running"
	KeyServeStarting  = "command.ollama.status.serve_starting"
	KeyPsRunning      = "command.ollama.status.ps_running"
	KeyRunStarting    = "command.ollama.status.run_starting"
	KeyListSuccess    = "command.ollama.status.list_success"
	KeyServiceStarted = "command.ollama.status.service_started"
	KeyPsSuccess      = "command.ollama.status.ps_success"
	KeyRunSuccess     = "command.ollama.status.run_success"
	KeyModelSet       = "command.ollama.status.model_set"
)

// ErrorKeyPrefix prefixes every error key. Model lists never suggest names
// carrying it.
const ErrorKeyPrefix = "command.ollama.error"

// Message is one feedback line.
type Message struct {
	// InvocationID ties the message to the command that produced it.
	InvocationID string `json:"invocation_id,omitempty"`
	// Key is a catalog key; empty for literal output.
	Key string `json:"key,omitempty"`
	// Args parameterize Key.
	Args []any `json:"args,omitempty"`
	// Text is the literal line when Key is empty.
	Text string `json:"text,omitempty"`
	// Stream is the origin of the line.
	Stream Stream `json:"stream"`
	// Terminal is set on the single message that ends an invocation.
	Terminal bool `json:"terminal,omitempty"`
}

// Line builds a literal output message.
func Line(stream Stream, text string) Message {
	return Message{Text: text, Stream: stream}
}

// Status builds a non-terminal translatable status message.
func Status(key string, args ...any) Message {
	return Message{Key: key, Args: args, Stream: StreamStatus}
}

// Final builds the terminal translatable message of an invocation.
func Final(key string, args ...any) Message {
	return Message{Key: key, Args: args, Stream: StreamStatus, Terminal: true}
}

// IsError reports whether the message carries an error key.
func (m Message) IsError() bool {
	return strings.HasPrefix(m.Key, ErrorKeyPrefix)
}
