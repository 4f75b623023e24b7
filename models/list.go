package models

import (
	"strings"

	"github.com/kbukum/ollamacmd/feedback"
)

// ParseList extracts model names from the stdout lines of `ollama list`.
//
//	NAME             ID            SIZE      MODIFIED
//	llama3:latest    365c0bd3c000  4.7 GB    2 days ago
//
// The header row and blank lines are skipped. The first column of every
// other row is the name.
func ParseList(lines []string) []string {
	var names []string
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if strings.EqualFold(fields[0], "NAME") {
			continue
		}
		names = append(names, fields[0])
	}
	return names
}

// ListCollector gathers stdout lines while a list invocation runs.
// It is a feedback.Sink; the runner serializes calls to it.
type ListCollector struct {
	lines []string
}

// Emit records stdout lines and ignores everything else.
func (c *ListCollector) Emit(msg feedback.Message) {
	if msg.Stream == feedback.StreamStdout && !msg.Terminal {
		c.lines = append(c.lines, msg.Text)
	}
}

// Names parses the collected lines.
func (c *ListCollector) Names() []string { return ParseList(c.lines) }
