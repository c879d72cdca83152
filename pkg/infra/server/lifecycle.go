// Package server runs the HTTP transport and any auxiliary servers under
// one lifecycle with graceful shutdown.
package server

import "context"

// Runnable is a component the Manager starts and stops.
type Runnable interface {
	// Start begins serving without blocking.
	Start(ctx context.Context) error
	// Stop stops the server gracefully.
	Stop(ctx context.Context) error
	// Name returns the server name for identification.
	Name() string
}
