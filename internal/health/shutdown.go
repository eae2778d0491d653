package health

import "sync/atomic"

// ready gates the readiness endpoint independently of dependency probes.
// It starts true and is flipped to false when shutdown begins so load
// balancers drain the instance before connections are closed.
var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady flips the readiness gate. Call with false at the start of
// graceful shutdown.
func SetReady(v bool) {
	ready.Store(v)
}

// IsReady reports the current gate state.
func IsReady() bool {
	return ready.Load()
}
