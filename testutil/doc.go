// Package testutil provides testing utilities for plsom.
//
// This package is intended for use in tests, examples and benchmarks only.
// It provides seeded generators for float64 training data.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	data := rng.UniformVectors(1000, 2)       // uniform [0, 1)
//	grid := testutil.GridVectors(5)           // regular grid on [0,1]²
//	clusters := rng.ClusteredVectors(500, centroids, 0.05)
package testutil
