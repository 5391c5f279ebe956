// Package buildinfo exposes the version stamped into stored diagnostics.
// Override at link time:
//
//	go build -ldflags "-X github.com/dmitrijs2005/ashdiag/internal/buildinfo.Version=2.1.0"
package buildinfo

// Version is recorded on every diagnostic as system_version.
var Version = "2.0.0"

// Commit is optional and only logged at startup.
var Commit = "unknown"
