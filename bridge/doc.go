// Package bridge exposes the command handler over HTTP.
//
//	POST /v1/commands           {"session":"tab-1","line":"/ollama list"}
//	GET  /v1/events/:session    feedback of the session's commands (SSE)
//	GET  /v1/models             cached model names and the current model
//	GET  /v1/suggestions?line=  completions for a partial command line
//	GET  /health, /version
//
// A command is accepted with 202 and its output arrives on the session's
// event stream, tagged with the invocation ID from the response. When a JWT
// secret is configured every /v1 route requires a bearer token; event
// streams may pass it as ?access_token= because EventSource cannot set
// headers.
package bridge
