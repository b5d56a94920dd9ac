// Package plsom provides self-organizing maps for Go.
//
// The package covers the classic fixed-rate SOM, the parameter-less PLSOM and
// PLSOM2, the BDH and conscience variants, importance estimation, and a
// family of recursive maps for sequence data. Every map trains online, one
// sample at a time, on a lattice of any rank.
//
// # Quick Start
//
//	m, _ := plsom.PLSOM2(2, 10, 10). // 2-d input, 10x10 lattice
//	    NeighborhoodRange(8).
//	    RandomSeed(42).
//	    Build()
//
//	for _, x := range samples {
//	    _ = m.Train(x)
//	}
//	coord, _ := m.Classify([]float64{0.2, 0.7})
//
// # Kinds
//
// Each map has a kind discriminator that is recorded in its Config:
//
//	som                            fixed rate with decay
//	plsom                          ε = error / largest error so far
//	plsom2                         ε = error / estimated input diameter
//	bdh-som                        per-node win-age learning rate
//	conscience-som                 fixed rate, biased against frequent winners
//	ie-plsom2                      PLSOM2 with per-dimension importance
//	recursive-plsom                input plus previous excitations
//	recursive-plsom2               diameter-normalised recursive map
//	stateless-recursive-plsom2     excitations held by the caller
//	ie-stateless-recursive-plsom2  stateless with importance estimation
//
// Two coupled multilayer layers are built with BuildLayers.
//
// # Persistence
//
// Snapshots capture the configuration and the complete state vector, so a
// restored map continues exactly where the saved one stopped:
//
//	store := blobstore.NewLocalStore("./snapshots")
//	_ = plsom.Save(ctx, store, "run/final.psom", m)
//	m2, _ := plsom.Load(ctx, store, "run/final.psom")
//
// Long runs checkpoint periodically to any blobstore.Store (local, S3, MinIO):
//
//	cp := plsom.NewCheckpointer(store, "run", plsom.WithCheckpointInterval(1000))
//	for _, x := range samples {
//	    _ = cp.Train(ctx, m, x)
//	}
//	m, cp, _ = plsom.Resume(ctx, store, "run")
//
// # Observability
//
// Logging uses log/slog through Logger. Metrics go to a MetricsCollector or,
// through the observability package, to Prometheus.
package plsom
