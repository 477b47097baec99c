// Package kdgo is a static nearest-neighbor index built on a balanced,
// implicit k-d tree.
//
// An Index is built once from a set of points with payloads, answers
// nearest-neighbor queries concurrently and can be saved to and loaded from
// any blobstore.BlobStore (local disk, S3, MinIO).
//
// # Quick Start
//
//	ctx := context.Background()
//	idx, err := kdgo.Build(ctx, entries, 3)
//	node, err := idx.Nearest(ctx, []float64{1, 2, 3})
//	fmt.Println(node.Point(), node.Payload())
//
// # Persistence
//
//	store := blobstore.NewLocalStore("./data")
//	err = idx.Publish(ctx, store, "airports-v1.kdt")   // snapshot + CURRENT
//	idx, err = kdgo.OpenCurrent[float64, Airport](ctx, store)
//
// Snapshots are self-describing: the coordinate type, payload codec and
// compression are stored in the header.
//
// # Observability
//
// Structured logging uses log/slog through Logger, metrics go through the
// MetricsCollector interface:
//
//	metrics := &kdgo.BasicMetricsCollector{}
//	idx, err := kdgo.Build(ctx, entries, 3,
//	    kdgo.WithLogger(kdgo.NewJSONLogger(slog.LevelInfo)),
//	    kdgo.WithMetricsCollector(metrics),
//	)
package kdgo
