package signals

import (
	"fmt"
	"os"
	"time"
)

// defaultGracefulTimeout is the maximum time to wait for pre-shutdown handlers
// to complete before proceeding with interrupt handlers.
const defaultGracefulTimeout = 30 * time.Second

var (
	preShutdown     []registeredHandler
	gracefulTimeout = defaultGracefulTimeout
)

// RegisterPreShutdownHandler registers a handler that runs BEFORE the interrupt
// handlers during graceful shutdown. This is the place for teardown that needs
// the process still fully alive: telling connected playback clients the server
// is going away, flushing library state, releasing transcoder scratch space.
//
// Pre-shutdown handlers run in registration order (FIFO) and each handler is
// protected against panics. All pre-shutdown handlers must complete (or the
// graceful timeout must expire) before interrupt handlers are invoked.
//
// Returns a HandlerID that can be passed to DeregisterPreShutdownHandler.
// Nil handlers are silently ignored and return -1.
func RegisterPreShutdownHandler(f Handler) HandlerID {
	return register(&preShutdown, f)
}

// DeregisterPreShutdownHandler removes a previously registered pre-shutdown
// handler by ID.
func DeregisterPreShutdownHandler(id HandlerID) {
	deregister(&preShutdown, id)
}

// SetGracefulTimeout configures the maximum time to wait for pre-shutdown
// handlers to complete. If zero or negative, defaults to 30 seconds.
func SetGracefulTimeout(timeout time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	if timeout <= 0 {
		gracefulTimeout = defaultGracefulTimeout
	} else {
		gracefulTimeout = timeout
	}
}

// handlePreShutdown runs all registered pre-shutdown handlers with a timeout.
// Returns true if all handlers completed within the timeout, false otherwise.
// On timeout the remaining handlers are abandoned in their goroutine; shutdown
// must not wait forever on a hung callback.
func handlePreShutdown() bool {
	handlers := snapshot(&preShutdown)
	mu.RLock()
	timeout := gracefulTimeout
	mu.RUnlock()

	if len(handlers) == 0 {
		return true
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		dispatch(handlers, "pre-shutdown")
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		fmt.Fprintf(os.Stderr, "signals: pre-shutdown handlers timed out after %s\n", timeout)
		return false
	}
}
