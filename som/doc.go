// Package som implements the shared self-organizing map engine and its
// adaptive-rate variants.
//
// A Map owns the node weight tensor and runs the common step:
//
//	Idle → Classifying → RateAdaptation → WeightUpdate → Idle
//
// Variants plug in a Policy that derives the learning rate and neighbourhood
// size for each step, and may implement optional hooks (Criterion,
// InputObserver, WinnerObserver, NodeUpdater, Committer, Stateful) to change
// how winners are chosen, how nodes are updated, and which state is carried
// between steps.
//
// # Variants
//
//   - SOM: externally supplied learning rate and neighbourhood size, decayed by a Trainer
//   - PLSOM: ε = error/ρ where ρ is the running maximum error
//   - PLSOM2: ε = error/diameter, diameter tracked by a diameter.Estimator
//   - BDH: per-node time-since-win scaling
//   - Conscience: win-frequency biased winner search
//   - IEPLSOM2: PLSOM2 with per-node input importance estimation
//
// Any map can additionally track per-node activations via WithActivation.
//
// # Usage
//
//	m, err := som.NewPLSOM2(2, []int{5, 5}, 6, som.WithSeed(42))
//	if err != nil { ... }
//	for _, x := range data {
//	    if err := m.Train(x); err != nil { ... }
//	}
//	winner, _ := m.Classify(query)
//
// A Map is not safe for concurrent use. WithParallelism fans the winner
// search and weight update of a single step out over node chunks.
package som
