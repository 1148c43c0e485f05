// Package api provides the HTTP API server for computing understandings and
// inspecting the brain.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string
}
