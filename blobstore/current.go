package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
)

// CurrentName is the blob that names the active snapshot.
const CurrentName = "CURRENT"

// SetCurrent points CURRENT at the snapshot name.
func SetCurrent(ctx context.Context, store BlobStore, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return store.Put(ctx, CurrentName, []byte(name))
}

// Current returns the snapshot name stored in CURRENT.
func Current(ctx context.Context, store BlobStore) (string, error) {
	data, err := ReadAll(ctx, store, CurrentName)
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(string(data))
	if err := ValidateName(name); err != nil {
		return "", fmt.Errorf("blobstore: CURRENT holds %q: %w", name, err)
	}
	return name, nil
}

// ReadAll reads a whole blob.
func ReadAll(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err == nil {
			return bytes.Clone(data), nil
		}
	}

	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
