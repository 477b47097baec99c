package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"

	"github.com/hupe1980/kdgo"
	"github.com/hupe1980/kdgo/airport"
)

type cmdNearest struct {
	store    storeFlags
	snapshot string
	lat      float64
	lon      float64
	elev     float64
	verbose  bool

	out io.Writer // defaults to os.Stdout
}

func (cmd *cmdNearest) Name() string     { return "nearest" }
func (cmd *cmdNearest) Synopsis() string { return "print the airport nearest to a position" }
func (cmd *cmdNearest) Usage() string {
	return "nearest -lat deg -lon deg [-elev ft] [-snapshot name] (-dir | -s3-bucket | -minio-endpoint)\n"
}

func (cmd *cmdNearest) SetFlags(f *flag.FlagSet) {
	cmd.store.register(f)
	f.StringVar(&cmd.snapshot, "snapshot", "", "Snapshot name (default CURRENT)")
	f.Float64Var(&cmd.lat, "lat", 0, "Latitude in degrees")
	f.Float64Var(&cmd.lon, "lon", 0, "Longitude in degrees")
	f.Float64Var(&cmd.elev, "elev", 0, "Elevation in feet")
	f.BoolVar(&cmd.verbose, "v", false, "Verbose logging")
}

func (cmd *cmdNearest) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	logger := newLogger(cmd.verbose)

	if cmd.lat < -90 || cmd.lat > 90 || cmd.lon < -180 || cmd.lon > 180 {
		logger.ErrorContext(ctx, "position out of range", "lat", cmd.lat, "lon", cmd.lon)
		return subcommands.ExitUsageError
	}

	a, err := cmd.run(ctx, logger)
	if err != nil {
		logger.ErrorContext(ctx, "nearest failed", "error", err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(output(cmd.out), "%s\t%s\t%s\t%.6f\t%.6f\t%.0fft\t%.1fnm\n",
		a.Ident, a.IATA, a.Name, a.Lat, a.Lon, a.ElevationFt,
		airport.GreatCircleFt(cmd.lat, cmd.lon, cmd.elev, a.Lat, a.Lon)/feetPerNauticalMile)
	return subcommands.ExitSuccess
}

const feetPerNauticalMile = 1852 / 0.3048

func (cmd *cmdNearest) run(ctx context.Context, logger *kdgo.Logger) (airport.Airport, error) {
	store, err := cmd.store.open(ctx)
	if err != nil {
		return airport.Airport{}, err
	}

	var idx *kdgo.Index[float64, airport.Airport]
	if cmd.snapshot == "" {
		idx, err = kdgo.OpenCurrent[float64, airport.Airport](ctx, store, kdgo.WithLogger(logger))
	} else {
		idx, err = kdgo.Open[float64, airport.Airport](ctx, store, cmd.snapshot, kdgo.WithLogger(logger))
	}
	if err != nil {
		return airport.Airport{}, err
	}

	db := airport.NewDatabase(idx)
	defer db.Close()

	return db.NearestAirport(ctx, cmd.lat, cmd.lon, cmd.elev)
}
