// Package server is the HTTP server behind the ollamacmd bridge: a gin
// engine served through h2c, the shared middleware stack and the JSON
// response helpers.
//
// Middleware (server/middleware): Recovery, RequestID, CORS, BodySizeLimit,
// RequestLogger, RateLimit and Auth.
//
// Endpoints (server/endpoint): /health and /version.
package server
