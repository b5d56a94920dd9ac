// Package stats measures the quality of a trained map.
//
// Measures work on a Codebook, a copy of the node weights taken from any
// som.Model. Matching is done in weight space only, so evaluating a
// recursive map does not disturb its excitations.
//
//	cb, _ := stats.NewCodebook(m)
//	qe, _ := cb.QuantizationError(samples)
//	te, _ := cb.TopographicError(samples)
//	hits, _ := cb.HitMap(samples)
//	dead := hits.DeadNodes()
package stats
