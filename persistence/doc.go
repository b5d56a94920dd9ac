// Package persistence implements the binary snapshot format for maps.
//
// A snapshot stores the constructor configuration of a map together with its
// state vector. Restoring a snapshot rebuilds the map through the kind
// registry and replays the state, so the restored map produces bit-identical
// winners and weights from then on.
//
// # Format
//
//	magic "PSOM" | version u16 | compression u8 | codec name (u8 len + bytes)
//	header (u32 len + codec bytes) | payload (u32 raw len + u32 stored len + bytes)
//	CRC32 (IEEE) of everything above
//
// The payload is the state vector as little-endian float64, optionally
// compressed with LZ4 or Zstandard.
//
// # Registry
//
// Decode looks up the stored kind in a registry populated with Register.
// The root plsom package registers all built-in kinds at init.
package persistence
