package app

import (
	"context"

	"github.com/shashiranjanraj/bazaar/internal/server"
)

// Serve builds the kernel and hands it to internal/server until ctx ends or
// the process is signalled.
func (a *Application) Serve(ctx context.Context) error {
	return server.Start(ctx, a.Handler())
}
