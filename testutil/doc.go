// Package testutil provides testing utilities for kdgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random point sets with different
// distributions and for computing exact nearest neighbours by linear scan.
//
// # Random Point Generation
//
//	rng := testutil.NewRNG(seed)
//	pts := rng.UniformPoints(1000, 3)          // uniform [0, 1)
//	pts = rng.ClusteredPoints(1000, 3, 8, 0.01) // gaussian blobs
//
// # Exact Search (Ground Truth)
//
//	idx, dist := testutil.LinearNearest(pts, query)
package testutil
