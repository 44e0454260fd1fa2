package shared

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
)

// exitInterrupted is the conventional status for a process stopped by SIGINT.
const exitInterrupted = 130

// WithShutdown returns a context that is cancelled on the first SIGINT or
// SIGTERM, which aborts in-flight agent decisions and backoff waits. A second
// signal exits the process at once. task names what is being stopped in the
// log. The returned stop func releases the signal handler.
func WithShutdown(parent context.Context, logger *log.Logger, task string) (context.Context, context.CancelFunc) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := watch(parent, logger, task, sigs, func() { os.Exit(exitInterrupted) })
	return ctx, func() {
		signal.Stop(sigs)
		cancel()
	}
}

// watch cancels the context on the first value from sigs and calls force on
// the second.
func watch(parent context.Context, logger *log.Logger, task string, sigs <-chan os.Signal, force func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case sig := <-sigs:
			logger.Info("Stopping "+task+"; in-flight agent decisions are cancelled", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			return
		}

		select {
		case sig := <-sigs:
			logger.Warn("Second signal, exiting immediately", "signal", sig.String())
			force()
		case <-parent.Done():
		}
	}()
	return ctx, cancel
}
