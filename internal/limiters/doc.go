// Package limiters provides the optional fixed-window throttles in front of
// the recovery engine's Issue and Consume operations.
//
// The limiter is nil-safe: calling any method on a nil receiver returns nil.
//
// # Architecture boundaries
//
// The limiter owns its own Redis key namespace and error values. Policy
// thresholds come from the config supplied at construction; it only counts —
// the engine decides consequences.
package limiters
