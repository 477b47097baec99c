package kdgo

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hupe1980/kdgo/blobstore"
	"github.com/hupe1980/kdgo/kdtree"
	"github.com/hupe1980/kdgo/persistence"
	"github.com/hupe1980/kdgo/resource"
)

// Index is an immutable nearest-neighbor index over points of type T with
// payloads of type V. It is safe for concurrent queries.
type Index[T kdtree.Number, V any] struct {
	tree     *kdtree.Tree[T, V]
	opts     options
	reserved int64
	closed   atomic.Bool
}

// Build creates an index of dimension dim from entries.
func Build[T kdtree.Number, V any](ctx context.Context, entries []kdtree.Entry[T, V], dim int, optFns ...Option) (*Index[T, V], error) {
	o := applyOptions(optFns)
	logger := o.logger.WithDimension(dim)
	start := time.Now()

	idx, err := build(ctx, entries, dim, o)

	o.metricsCollector.RecordBuild(len(entries), time.Since(start), err)
	maxDepth := 0
	if err == nil {
		maxDepth = idx.tree.MaxDepth()
	}
	logger.LogBuild(ctx, len(entries), dim, maxDepth, time.Since(start), err)

	return idx, err
}

func build[T kdtree.Number, V any](ctx context.Context, entries []kdtree.Entry[T, V], dim int, o options) (*Index[T, V], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reserved := arenaBytes[T](len(entries), dim)
	if err := o.controller.AcquireMemory(ctx, reserved); err != nil {
		return nil, err
	}

	tree, err := kdtree.Build(entries, dim, o.buildOptions)
	if err != nil {
		o.controller.ReleaseMemory(reserved)
		return nil, translateError(err)
	}

	return &Index[T, V]{tree: tree, opts: o, reserved: reserved}, nil
}

// arenaBytes estimates the coordinate arena a tree of n points needs.
func arenaBytes[T kdtree.Number](n, dim int) int64 {
	if n <= 0 || dim <= 0 {
		return 0
	}
	return int64(n) * int64(dim) * int64(binary.Size(*new(T)))
}

// Nearest returns the stored node closest to q.
func (idx *Index[T, V]) Nearest(ctx context.Context, q []T) (*kdtree.Node[T, V], error) {
	if idx.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	node, err := idx.tree.Nearest(q)
	err = translateError(err)

	idx.opts.metricsCollector.RecordSearch(time.Since(start), err)
	idx.opts.logger.LogSearch(ctx, time.Since(start), err)

	return node, err
}

// NearestPayload returns the payload of the stored node closest to q.
func (idx *Index[T, V]) NearestPayload(ctx context.Context, q []T) (V, error) {
	node, err := idx.Nearest(ctx, q)
	if err != nil {
		var zero V
		return zero, err
	}
	return node.Payload(), nil
}

// Len returns the number of indexed points.
func (idx *Index[T, V]) Len() int { return idx.tree.Len() }

// Dimension returns the dimensionality of the indexed points.
func (idx *Index[T, V]) Dimension() int { return idx.tree.Dimension() }

// MaxDepth returns the depth of the deepest node.
func (idx *Index[T, V]) MaxDepth() int { return idx.tree.MaxDepth() }

// Tree returns the underlying tree.
func (idx *Index[T, V]) Tree() *kdtree.Tree[T, V] { return idx.tree }

// Close releases the memory reserved with the resource controller.
// Queries on a closed index fail with ErrClosed. Close is idempotent.
func (idx *Index[T, V]) Close() error {
	if idx.closed.Swap(true) {
		return nil
	}
	idx.opts.controller.ReleaseMemory(idx.reserved)
	return nil
}

// Save writes a snapshot of the index to store under name. The blob only
// becomes visible if the whole snapshot was written.
func (idx *Index[T, V]) Save(ctx context.Context, store blobstore.BlobStore, name string) error {
	if idx.closed.Load() {
		return ErrClosed
	}

	start := time.Now()
	n, err := idx.save(ctx, store, name)

	idx.opts.metricsCollector.RecordSave(n, time.Since(start), err)
	idx.opts.logger.LogSave(ctx, name, n, err)

	return err
}

func (idx *Index[T, V]) save(ctx context.Context, store blobstore.BlobStore, name string) (int64, error) {
	w, err := store.Create(ctx, name)
	if err != nil {
		return 0, err
	}

	n, err := persistence.Write(resource.NewRateLimitedWriter(ctx, w, idx.opts.controller), idx.tree, persistence.WriteOptions{
		Compression: idx.opts.compression,
		Codec:       idx.opts.codec,
	})
	if err == nil {
		err = w.Sync()
	}
	if err != nil {
		_ = blobstore.Abort(w)
		return n, fmt.Errorf("kdgo: save %s: %w", name, err)
	}

	if err := w.Close(); err != nil {
		return n, fmt.Errorf("kdgo: save %s: %w", name, err)
	}
	return n, nil
}

// Publish saves a snapshot under name and then points CURRENT at it.
// Readers using OpenCurrent never observe a partially written snapshot.
func (idx *Index[T, V]) Publish(ctx context.Context, store blobstore.BlobStore, name string) error {
	if err := idx.Save(ctx, store, name); err != nil {
		return err
	}

	err := blobstore.SetCurrent(ctx, store, name)
	idx.opts.logger.LogPublish(ctx, name, err)
	return err
}

// Open loads the snapshot name from store.
//
// The payload codec and compression are taken from the snapshot header;
// WithCodec and WithCompression only apply to later calls to Save.
func Open[T kdtree.Number, V any](ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Index[T, V], error) {
	o := applyOptions(optFns)
	logger := o.logger.WithSnapshot(name)
	start := time.Now()

	idx, size, err := open[T, V](ctx, store, name, o)

	o.metricsCollector.RecordLoad(size, time.Since(start), err)
	count := 0
	if err == nil {
		count = idx.Len()
	}
	logger.LogLoad(ctx, name, count, err)

	return idx, err
}

func open[T kdtree.Number, V any](ctx context.Context, store blobstore.BlobStore, name string, o options) (*Index[T, V], int64, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	defer b.Close()

	size := b.Size()

	head := make([]byte, persistence.HeaderSize)
	if _, err := b.ReadAt(ctx, head, 0); err != nil {
		return nil, size, fmt.Errorf("kdgo: open %s: %w", name, err)
	}
	hdr, err := persistence.ReadHeader(bytes.NewReader(head))
	if err != nil {
		return nil, size, fmt.Errorf("kdgo: open %s: %w", name, err)
	}

	reserved := arenaBytes[T](int(hdr.NodeCount), int(hdr.Dimension))
	if err := o.controller.AcquireMemory(ctx, reserved); err != nil {
		return nil, size, err
	}

	tree, err := readTree[T, V](ctx, b, o)
	if err != nil {
		o.controller.ReleaseMemory(reserved)
		return nil, size, fmt.Errorf("kdgo: open %s: %w", name, err)
	}

	return &Index[T, V]{tree: tree, opts: o, reserved: reserved}, size, nil
}

func readTree[T kdtree.Number, V any](ctx context.Context, b blobstore.Blob, o options) (*kdtree.Tree[T, V], error) {
	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	tree, _, err := persistence.Read[T, V](resource.NewRateLimitedReader(ctx, rc, o.controller))
	if err != nil {
		return nil, translateError(err)
	}
	return tree, nil
}

// OpenCurrent loads the snapshot CURRENT points at.
func OpenCurrent[T kdtree.Number, V any](ctx context.Context, store blobstore.BlobStore, optFns ...Option) (*Index[T, V], error) {
	name, err := blobstore.Current(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("kdgo: resolve %s: %w", blobstore.CurrentName, err)
	}
	return Open[T, V](ctx, store, name, optFns...)
}
