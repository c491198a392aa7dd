// Package engine identifies the Fieldline engine build. The service name
// and version ride along on every log line and health response.
package engine

const (
	Name    = "fieldline"
	Version = "0.4.0"
)
