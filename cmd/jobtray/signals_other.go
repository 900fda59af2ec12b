//go:build !unix

package main

import "context"

type trayActions interface {
	Clear()
	Reset()
}

// handleUserSignals waits for ctx; this platform has no user signals.
func handleUserSignals(ctx context.Context, _ trayActions) {
	<-ctx.Done()
}
