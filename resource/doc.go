// Package resource bounds the resources used while building and persisting
// trees: memory reserved for coordinate arenas, goroutines used by parallel
// partitioning and the byte rate of snapshot IO.
//
// A nil *Controller imposes no limits.
package resource
