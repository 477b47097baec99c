package airport

import (
	"context"
	"errors"

	"github.com/hupe1980/kdgo"
	"github.com/hupe1980/kdgo/kdtree"
)

// ErrNoPositions is returned when none of the airports has a position.
var ErrNoPositions = errors.New("airport: no airport with a position")

// Entries converts airports with a position into index entries.
func Entries(airports []Airport) []kdtree.Entry[float64, Airport] {
	entries := make([]kdtree.Entry[float64, Airport], 0, len(airports))
	for _, a := range airports {
		if !a.HasPosition {
			continue
		}
		entries = append(entries, kdtree.Entry[float64, Airport]{Point: a.Point(), Payload: a})
	}
	return entries
}

// Database answers nearest-airport queries.
type Database struct {
	idx *kdgo.Index[float64, Airport]
}

// NewDatabase wraps an index built from Entries or loaded from a snapshot.
func NewDatabase(idx *kdgo.Index[float64, Airport]) *Database {
	return &Database{idx: idx}
}

// Build indexes airports.
func Build(ctx context.Context, airports []Airport, opts ...kdgo.Option) (*Database, error) {
	entries := Entries(airports)
	if len(entries) == 0 {
		return nil, ErrNoPositions
	}
	idx, err := kdgo.Build(ctx, entries, 3, opts...)
	if err != nil {
		return nil, err
	}
	return &Database{idx: idx}, nil
}

// Index returns the underlying index.
func (db *Database) Index() *kdgo.Index[float64, Airport] { return db.idx }

// Len returns the number of indexed airports.
func (db *Database) Len() int { return db.idx.Len() }

// NearestAirport returns the airport closest to the given position.
func (db *Database) NearestAirport(ctx context.Context, lat, lon, elevationFt float64) (Airport, error) {
	return db.idx.NearestPayload(ctx, Cartesian(lat, lon, elevationFt))
}

// Close releases the index.
func (db *Database) Close() error { return db.idx.Close() }
