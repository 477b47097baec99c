package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/google/subcommands"

	"github.com/hupe1980/kdgo"
	"github.com/hupe1980/kdgo/airport"
	"github.com/hupe1980/kdgo/codec"
	"github.com/hupe1980/kdgo/persistence"
	"github.com/hupe1980/kdgo/resource"
)

const (
	fileEnv = "AIRPORTS_JSON_FILE"
	urlEnv  = "AIRPORTS_JSON_URL"
)

type cmdBuild struct {
	store       storeFlags
	src         string
	name        string
	compression string
	codec       string
	workers     int
	ioLimit     int64
	verbose     bool

	out io.Writer // defaults to os.Stdout
}

func (cmd *cmdBuild) Name() string     { return "build" }
func (cmd *cmdBuild) Synopsis() string { return "build an airport snapshot and publish it" }
func (cmd *cmdBuild) Usage() string {
	return `build [-src file|url] (-dir dir | -s3-bucket bucket [-ddb-table table] | -minio-endpoint host:port)

Without -src the dataset is read from $` + fileEnv + `, then $` + urlEnv + `,
then downloaded from ` + airport.DefaultURL + `.
`
}

func (cmd *cmdBuild) SetFlags(f *flag.FlagSet) {
	cmd.store.register(f)
	f.StringVar(&cmd.src, "src", "", "Airport JSON file or URL")
	f.StringVar(&cmd.name, "name", "", "Snapshot name (default airports-<unix time>.kdt)")
	f.StringVar(&cmd.compression, "compression", "zstd", "Snapshot compression: none, lz4 or zstd")
	f.StringVar(&cmd.codec, "codec", codec.Default.Name(), "Payload codec: json or go-json")
	f.IntVar(&cmd.workers, "workers", 0, "Build workers (0 = GOMAXPROCS-1)")
	f.Int64Var(&cmd.ioLimit, "io-limit", 0, "Upload limit in bytes per second (0 = unlimited)")
	f.BoolVar(&cmd.verbose, "v", false, "Verbose logging")
}

func (cmd *cmdBuild) source() string {
	if cmd.src != "" {
		return cmd.src
	}
	if v := os.Getenv(fileEnv); v != "" {
		return v
	}
	if v := os.Getenv(urlEnv); v != "" {
		return v
	}
	return airport.DefaultURL
}

func (cmd *cmdBuild) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	logger := newLogger(cmd.verbose)

	if err := cmd.run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "build failed", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (cmd *cmdBuild) run(ctx context.Context, logger *kdgo.Logger) error {
	compression, err := persistence.ParseCompression(cmd.compression)
	if err != nil {
		return err
	}
	c, ok := codec.ByName(cmd.codec)
	if !ok {
		return &codec.UnknownCodecError{Name: cmd.codec}
	}

	store, err := cmd.store.open(ctx)
	if err != nil {
		return err
	}

	src := cmd.source()
	ds, err := airport.Load(ctx, src)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "airports loaded",
		"source", src,
		"airports", len(ds.Airports),
		"skipped", ds.Skipped,
	)

	opts := []kdgo.Option{
		kdgo.WithLogger(logger),
		kdgo.WithCodec(c),
		kdgo.WithCompression(compression),
		kdgo.WithWorkers(cmd.workers),
	}
	if cmd.ioLimit > 0 {
		opts = append(opts, kdgo.WithResourceController(resource.NewController(resource.Config{
			MaxBackgroundWorkers: int64(cmd.buildWorkers()),
			IOLimitBytesPerSec:   cmd.ioLimit,
		})))
	}

	db, err := airport.Build(ctx, ds.Airports, opts...)
	if err != nil {
		return err
	}
	defer db.Close()

	name := cmd.name
	if name == "" {
		name = fmt.Sprintf("airports-%d.kdt", time.Now().Unix())
	}
	if err := db.Index().Publish(ctx, store, name); err != nil {
		return err
	}

	fmt.Fprintln(output(cmd.out), name)
	return nil
}

// buildWorkers resolves -workers, where 0 means GOMAXPROCS-1.
func (cmd *cmdBuild) buildWorkers() int {
	if cmd.workers > 0 {
		return cmd.workers
	}
	return max(runtime.GOMAXPROCS(0)-1, 1)
}

func output(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}

func newLogger(verbose bool) *kdgo.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return kdgo.NewTextLogger(level)
}
