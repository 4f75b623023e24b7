// Package version reports the ollamacmd build.
//
// Release builds stamp the fields with -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/ollamacmd/version.Version=0.3.0" ./cmd/ollamacmd
//
// Unstamped builds fall back to the VCS settings recorded by the Go toolchain.
package version
