// Package server implements the HTTP API server for the condition engine
//
// This package provides REST endpoints for managing workflow definitions,
// run evaluation, navigation, validation, revision history, and the
// WebSocket run channel
package server
