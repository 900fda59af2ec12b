//go:build unix

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// trayActions are the user actions reachable from outside a terminal.
type trayActions interface {
	Clear()
	Reset()
}

// handleUserSignals maps SIGUSR1 to Clear History and SIGUSR2 to Reset Icon
// until ctx is done.
func handleUserSignals(ctx context.Context, t trayActions) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			switch sig {
			case syscall.SIGUSR1:
				t.Clear()
			case syscall.SIGUSR2:
				t.Reset()
			}
		}
	}
}
