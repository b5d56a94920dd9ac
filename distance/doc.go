// Package distance provides the metrics used to compare weight vectors with
// inputs and lattice coordinates with each other.
//
// # Supported Metrics
//
//   - Euclidean: sqrt(Σ(aᵢ-bᵢ)²), used for lattice distances and diameter estimation
//   - SquaredEuclidean: Σ(aᵢ-bᵢ)², cheaper and rank-equivalent to Euclidean
//   - WeightedEuclidean: sqrt(Σ wᵢ(aᵢ-bᵢ)²) with weights passed per call
//
// # Usage
//
//	m, _ := distance.ByKind(distance.KindEuclidean)
//	d := m.Distance(a, b)
//	l := m.Lattice([]int{0, 0}, []int{3, 4}) // 5
//
//	w := distance.WeightedEuclidean{}
//	d = w.WeightedDistance(a, b, importance)
//
// All functions assume equal-length inputs; callers validate dimensions.
package distance
