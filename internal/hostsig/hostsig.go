//go:build !windows

// Package hostsig wires host SIGINT/SIGTERM delivery into a context
// cancellation (and SIGWINCH into a resize channel), so the CLI can stop the
// hart loop cleanly and restore the terminal on Ctrl-C instead of leaving it
// in raw mode.
package hostsig

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// Watcher delivers SIGINT as context cancellation and SIGWINCH as a
// best-effort notification channel for terminal resize.
type Watcher struct {
	sig     chan os.Signal
	Resized <-chan os.Signal
}

// Notify installs the handler and returns a context cancelled on the first
// SIGINT/SIGTERM, along with the Watcher for reading resize events.
func Notify(parent context.Context) (context.Context, *Watcher, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, unix.SIGINT, unix.SIGTERM)

	resize := make(chan os.Signal, 1)
	signal.Notify(resize, unix.SIGWINCH)

	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
	}()

	w := &Watcher{sig: sig, Resized: resize}
	return ctx, w, cancel
}

// Stop removes the installed signal handlers.
func (w *Watcher) Stop() {
	signal.Stop(w.sig)
	signal.Reset(unix.SIGWINCH)
}
