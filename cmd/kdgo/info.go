package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"

	"github.com/hupe1980/kdgo/blobstore"
	"github.com/hupe1980/kdgo/persistence"
)

type cmdInfo struct {
	store    storeFlags
	snapshot string

	out io.Writer // defaults to os.Stdout
}

func (cmd *cmdInfo) Name() string     { return "info" }
func (cmd *cmdInfo) Synopsis() string { return "describe the stored snapshots" }
func (cmd *cmdInfo) Usage() string {
	return "info [-snapshot name] (-dir | -s3-bucket | -minio-endpoint)\n"
}

func (cmd *cmdInfo) SetFlags(f *flag.FlagSet) {
	cmd.store.register(f)
	f.StringVar(&cmd.snapshot, "snapshot", "", "Only describe this snapshot")
}

func (cmd *cmdInfo) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	logger := newLogger(false)

	if err := cmd.run(ctx, output(cmd.out)); err != nil {
		logger.ErrorContext(ctx, "info failed", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (cmd *cmdInfo) run(ctx context.Context, w io.Writer) error {
	store, err := cmd.store.open(ctx)
	if err != nil {
		return err
	}

	current, err := blobstore.Current(ctx, store)
	if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		return err
	}

	names := []string{cmd.snapshot}
	if cmd.snapshot == "" {
		if names, err = store.List(ctx, ""); err != nil {
			return err
		}
	}

	for _, name := range names {
		if name == blobstore.CurrentName {
			continue
		}
		hdr, size, err := readHeader(ctx, store, name)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}
		marker := " "
		if name == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\t%d bytes\t%d nodes\tdim %d\tdepth %d\t%s\t%s\t%s\n",
			marker, name, size, hdr.NodeCount, hdr.Dimension, hdr.MaxDepth,
			hdr.Kind, hdr.Compression, hdr.CodecName())
	}
	return nil
}

func readHeader(ctx context.Context, store blobstore.BlobStore, name string) (*persistence.FileHeader, int64, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	defer b.Close()

	head := make([]byte, persistence.HeaderSize)
	if _, err := b.ReadAt(ctx, head, 0); err != nil {
		return nil, b.Size(), err
	}
	hdr, err := persistence.ReadHeader(bytes.NewReader(head))
	return hdr, b.Size(), err
}
