// Package sse streams command feedback to HTTP clients as Server-Sent
// Events.
//
// A Hub routes events to connected clients by glob pattern. Every client
// belongs to a session, so feedback for one session reaches every tab that
// subscribed to it:
//
//	hub.Broadcast(sse.SessionPattern(sessionID), sse.Event{Type: sse.EventTypeFeedback, Data: data})
package sse
