package sse

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Event types written on the "event:" line.
const (
	// EventTypeConnected is sent when a client successfully connects.
	EventTypeConnected = "connected"
	// EventTypeFeedback carries one feedback message of an invocation.
	EventTypeFeedback = "feedback"
	// EventTypeError is sent when a request could not be accepted.
	EventTypeError = "error"
)

// Event is one SSE frame. Data must not contain newlines.
type Event struct {
	Type string
	Data []byte
}

// Broadcaster sends events to every client whose ID matches pattern.
type Broadcaster interface {
	Broadcast(pattern string, ev Event)
}

// ClientID returns a fresh client ID inside session.
func ClientID(session string) string {
	return fmt.Sprintf("session:%s:%s", session, uuid.NewString())
}

// SessionPattern matches every client of session.
func SessionPattern(session string) string {
	return "session:" + escapeGlob(session) + ":*"
}

// escapeGlob makes s match itself literally in a filepath.Match pattern.
func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}
