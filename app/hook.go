package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WaitForShutdown returns a context that is cancelled on SIGINT or SIGTERM. Calling stop
// releases the signal handler.
func WaitForShutdown(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
