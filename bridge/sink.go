package bridge

import (
	"encoding/json"

	apperrors "github.com/kbukum/ollamacmd/errors"
	"github.com/kbukum/ollamacmd/feedback"
	"github.com/kbukum/ollamacmd/logger"
	"github.com/kbukum/ollamacmd/sse"
)

// FeedbackEvent is the data of a "feedback" SSE frame.
type FeedbackEvent struct {
	InvocationID string          `json:"invocation_id,omitempty"`
	Key          string          `json:"key,omitempty"`
	Text         string          `json:"text"`
	Stream       feedback.Stream `json:"stream"`
	Terminal     bool            `json:"terminal,omitempty"`
	Error        bool            `json:"error,omitempty"`
}

// ErrorEvent is the data of an "error" SSE frame, sent when a posted line
// is rejected.
type ErrorEvent struct {
	Line  string              `json:"line"`
	Error apperrors.ErrorBody `json:"error"`
}

// hubSink publishes feedback to every event stream of one session. It is
// safe for concurrent use.
type hubSink struct {
	out     sse.Broadcaster
	pattern string
	tr      *feedback.Translator
	log     *logger.Logger
}

func newHubSink(out sse.Broadcaster, session string, tr *feedback.Translator, log *logger.Logger) *hubSink {
	return &hubSink{out: out, pattern: sse.SessionPattern(session), tr: tr, log: log}
}

// Emit implements feedback.Sink.
func (s *hubSink) Emit(msg feedback.Message) {
	data, err := json.Marshal(FeedbackEvent{
		InvocationID: msg.InvocationID,
		Key:          msg.Key,
		Text:         s.tr.Render(msg),
		Stream:       msg.Stream,
		Terminal:     msg.Terminal,
		Error:        msg.IsError() || msg.Stream == feedback.StreamStderr,
	})
	if err != nil {
		s.log.Warn("feedback not encodable", logger.Fields(logger.FieldError, err.Error()))
		return
	}
	s.out.Broadcast(s.pattern, sse.Event{Type: sse.EventTypeFeedback, Data: data})
}

// reject tells the session's streams that line was not accepted.
func (s *hubSink) reject(line string, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	data, mErr := json.Marshal(ErrorEvent{Line: line, Error: appErr.ToResponse().Error})
	if mErr != nil {
		s.log.Warn("rejection not encodable", logger.Fields(logger.FieldError, mErr.Error()))
		return
	}
	s.out.Broadcast(s.pattern, sse.Event{Type: sse.EventTypeError, Data: data})
}
