// Package safego launches background goroutines that survive panics.
package safego

import "log/slog"

// Go runs fn on a new goroutine, recovering and logging any panic instead of
// letting it take the process down. Every fire-and-forget goroutine in the
// server (rate limiter cleanup, pool stats sampling, the metrics listener)
// goes through here so a panic never silently kills one.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("background goroutine panicked", "panic", r)
			}
		}()
		fn()
	}()
}
