package signals

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
)

// sigChan is buffered to avoid missing signals delivered while no receiver is ready.
var sigChan = make(chan os.Signal, 1)

// Handler is a function called when a signal is received.
type Handler func()

// HandlerID is a unique identifier returned by registration functions,
// used to deregister individual handlers.
type HandlerID int

// registeredHandler pairs a handler with its unique ID.
type registeredHandler struct {
	id HandlerID
	fn Handler
}

var (
	mu           sync.RWMutex
	reloaders    []registeredHandler
	interrupters []registeredHandler
	nextID       HandlerID
	stopOnce     sync.Once
)

// register appends a handler to the given list and returns its ID.
// Nil handlers are silently ignored and return -1.
func register(list *[]registeredHandler, f Handler) HandlerID {
	if f == nil {
		return -1
	}
	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	*list = append(*list, registeredHandler{id: id, fn: f})
	return id
}

// deregister removes the handler with the given ID from the list, if present.
func deregister(list *[]registeredHandler, id HandlerID) {
	mu.Lock()
	defer mu.Unlock()
	for i, h := range *list {
		if h.id == id {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}

// snapshot copies the list under the read lock so handlers run without
// holding it and may themselves register or deregister.
func snapshot(list *[]registeredHandler) []registeredHandler {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]registeredHandler, len(*list))
	copy(out, *list)
	return out
}

// dispatch runs handlers in registration order. Each call is individually
// recovered so a panicking handler cannot take down signal processing or
// skip the handlers after it.
func dispatch(handlers []registeredHandler, kind string) {
	for _, h := range handlers {
		runRecovered(h.fn, kind)
	}
}

// runRecovered invokes a single handler with panic recovery. The signals
// package has no logger; panics go directly to stderr so they are visible
// in logs/console.
func runRecovered(f Handler, kind string) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "signals: panic in %s handler: %v\n", kind, r)
		}
	}()
	f()
}

// RegisterReloadHandler registers a handler called on SIGHUP (config reload).
// Returns a HandlerID that can be passed to DeregisterReloadHandler.
// Nil handlers are silently ignored and return -1.
func RegisterReloadHandler(f Handler) HandlerID {
	return register(&reloaders, f)
}

// DeregisterReloadHandler removes a previously registered reload handler by ID.
func DeregisterReloadHandler(id HandlerID) {
	deregister(&reloaders, id)
}

// RegisterInterruptHandler registers a handler called on SIGINT/SIGTERM (shutdown).
// Returns a HandlerID that can be passed to DeregisterInterruptHandler.
// Nil handlers are silently ignored and return -1.
func RegisterInterruptHandler(f Handler) HandlerID {
	return register(&interrupters, f)
}

// DeregisterInterruptHandler removes a previously registered interrupt handler by ID.
func DeregisterInterruptHandler(id HandlerID) {
	deregister(&interrupters, id)
}

func handleReload() {
	dispatch(snapshot(&reloaders), "reload")
}

// handleInterrupted runs the graceful pre-shutdown phase first, then the
// interrupt handlers. Pre-shutdown completion is bounded by the graceful
// timeout; shutdown proceeds either way.
func handleInterrupted() {
	handlePreShutdown()
	dispatch(snapshot(&interrupters), "interrupt")
}

// StopHandle closes the signal channel, causing Handle() to return.
// It first calls signal.Stop to prevent signal delivery to the closed channel.
// Safe to call multiple times; only the first call takes effect.
func StopHandle() {
	stopOnce.Do(func() {
		signal.Stop(sigChan)
		close(sigChan)
	})
}
