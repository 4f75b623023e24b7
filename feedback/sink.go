package feedback

import (
	"fmt"
	"io"
	"sync"
)

// Sink receives feedback messages as they are produced.
type Sink interface {
	Emit(msg Message)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(msg Message)

// Emit calls f(msg).
func (f SinkFunc) Emit(msg Message) { f(msg) }

// Discard drops every message.
var Discard Sink = SinkFunc(func(Message) {})

// Multi fans every message out to all sinks in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(msg Message) {
		for _, s := range sinks {
			s.Emit(msg)
		}
	})
}

// Locked serializes calls to s so it can be shared between goroutines.
func Locked(s Sink) Sink {
	var mu sync.Mutex
	return SinkFunc(func(msg Message) {
		mu.Lock()
		defer mu.Unlock()
		s.Emit(msg)
	})
}

// Tagged stamps every message with invocationID before passing it on.
func Tagged(s Sink, invocationID string) Sink {
	return SinkFunc(func(msg Message) {
		msg.InvocationID = invocationID
		s.Emit(msg)
	})
}

// WriterSink renders messages through a Translator and writes one line per
// message to w.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
	tr *Translator
}

// NewWriterSink creates a WriterSink.
func NewWriterSink(w io.Writer, tr *Translator) *WriterSink {
	return &WriterSink{w: w, tr: tr}
}

// Emit writes the rendered message followed by a newline.
func (s *WriterSink) Emit(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.w, s.tr.Render(msg))
}

// Recorder keeps every message in memory. It is safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

// Emit records msg.
func (r *Recorder) Emit(msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Terminal returns the recorded terminal messages.
func (r *Recorder) Terminal() []Message {
	var out []Message
	for _, m := range r.Messages() {
		if m.Terminal {
			out = append(out, m)
		}
	}
	return out
}

// Lines returns the text of literal messages from one stream, in order.
func (r *Recorder) Lines(stream Stream) []string {
	var out []string
	for _, m := range r.Messages() {
		if m.Key == "" && m.Stream == stream {
			out = append(out, m.Text)
		}
	}
	return out
}

// Keys returns the keys of translatable messages, in order.
func (r *Recorder) Keys() []string {
	var out []string
	for _, m := range r.Messages() {
		if m.Key != "" {
			out = append(out, m.Key)
		}
	}
	return out
}
