// Package backend defines the boundary to the self-hosted application
// launcher that owns the test backend's lifecycle.
package backend

import "context"

// Instance describes a running backend application.
type Instance struct {
	// BaseURL is the address the backend itself listens on. Readiness
	// probing addresses it directly, bypassing the proxy.
	BaseURL string
	// Exited closes when the backend process ends for any reason. The
	// harness observes this signal; it never drives it.
	Exited <-chan struct{}
}

// Launcher starts the backend application. redirectURI is the externally
// visible base address of the deployment, handed to the backend so any
// links or redirects it emits point at the proxy rather than at itself.
type Launcher interface {
	Start(ctx context.Context, redirectURI string) (Instance, error)
}
