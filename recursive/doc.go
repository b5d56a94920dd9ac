// Package recursive implements the recursive self-organizing maps: maps whose
// winner search compares both the current input and the excitation pattern
// left by the previous step.
//
// Every node owns a direct weight vector (compared with the input) and a
// recursive weight vector with one component per node (compared with the
// previous excitations). The blend is controlled by alpha:
//
//	dist = α·d(x, w) + (1−α)·d(exc, rw)
//
// In predict mode the input term is dropped and the maps accept a nil input,
// so a trained map can free-run on its own excitations.
//
// # Variants
//
//   - PLSOM: rho-based rate, min–max normalized excitations scaled by recovery
//   - PLSOM2: rate normalized by input and excitation diameter estimates
//   - Stateless: PLSOM2 whose excitations can be threaded by a Session, so one
//     set of weights serves many independent sequences
//   - IEStateless: Stateless with per-node importance estimation for direct
//     and recursive weights
//   - Layer: multilayer map with self and cross-layer feedback, see Couple
//
// A node that has just won is inhibited by its recovery value, which climbs
// back towards 1 with every step.
package recursive
