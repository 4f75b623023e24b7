// Package models keeps the in-memory cache of known model names and the
// currently selected model.
//
// The cache is refreshed from the output of `ollama list` (see ParseList)
// and consulted for suggestions and validation. Nothing is persisted.
package models
