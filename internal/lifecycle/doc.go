// Package lifecycle drives component instances through their ordered states
// and guarantees that every instance is closed exactly once.
package lifecycle
