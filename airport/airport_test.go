package airport

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hupe1980/kdgo"
	"github.com/hupe1980/kdgo/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `[
  {"ident": "EDDF", "name": "Frankfurt am Main Airport", "municipality": " Frankfurt am Main ",
   "iata_code": "FRA", "continent": "EU", "iso_country": "DE", "iso_region": "DE-HE",
   "coordinates": "8.570556, 50.033333", "elevation_ft": "364", "type": "large_airport"},
  {"ident": "EDDM", "name": "Munich Airport", "iata_code": "MUC", "continent": "eu",
   "iso_country": "de", "iso_region": "DE-BY", "coordinates": "11.786086, 48.353783",
   "elevation_ft": 1487, "type": "Large_Airport"},
  {"ident": "EDDH", "name": "Hamburg Airport", "iata_code": "HAM", "continent": "EU",
   "iso_country": "DE", "iso_region": "DE-HH", "coordinates": "9.988228, 53.630389",
   "elevation_ft": "53", "type": "large_airport"},
  {"ident": "KJFK", "name": "John F Kennedy International Airport", "iata_code": "JFK",
   "continent": "NA", "iso_country": "US", "iso_region": "US-NY",
   "coordinates": "-73.778925, 40.639751", "elevation_ft": "13", "type": "large_airport"},
  {"ident": "YSSY", "name": "Sydney Kingsford Smith International Airport", "iata_code": "SYD",
   "continent": "OC", "iso_country": "AU", "iso_region": "AU-NSW",
   "coordinates": "151.177, -33.946111", "elevation_ft": "21", "type": "large_airport"},
  {"ident": "00AA", "name": "No Position", "continent": "NA", "iso_country": "US",
   "iso_region": "US-KS", "coordinates": null, "elevation_ft": null, "type": "small_airport"},
  {"ident": "BAD1", "iata_code": "TOOLONG", "continent": "EU", "iso_country": "DE",
   "coordinates": "8.0, 50.0", "type": "small_airport"},
  {"ident": "BAD2", "continent": "XX", "iso_country": "DE", "coordinates": "8.0, 50.0",
   "type": "small_airport"},
  {"ident": "BAD3", "continent": "EU", "iso_country": "D1", "coordinates": "8.0, 50.0",
   "type": "small_airport"},
  {"ident": "BAD4", "continent": "EU", "iso_country": "DE", "coordinates": "8.0, 95.0",
   "type": "small_airport"},
  {"ident": "BAD5", "continent": "EU", "iso_country": "DE", "coordinates": "8.0, 50.0",
   "elevation_ft": "99999", "type": "small_airport"},
  {"ident": "BAD6", "continent": "EU", "iso_country": "DE", "coordinates": "8.0, 50.0",
   "type": "spaceport"},
  {"ident": "BAD7", "continent": "EU", "iso_country": "DE", "iso_region": "de-he",
   "coordinates": "8.0, 50.0", "type": "small_airport"},
  {"ident": ["not", "a", "string"]},
  42
]`

func TestDecode(t *testing.T) {
	ds, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, 9, ds.Skipped)
	require.Len(t, ds.Airports, 6)

	fra := ds.Airports[0]
	assert.Equal(t, "EDDF", fra.Ident)
	assert.Equal(t, "FRA", fra.IATA)
	assert.Equal(t, "Frankfurt am Main", fra.Municipality)
	assert.Equal(t, "DE-HE", fra.Region)
	assert.Equal(t, TypeLargeAirport, fra.Type)
	assert.InDelta(t, 50.033333, fra.Lat, 1e-9)
	assert.InDelta(t, 8.570556, fra.Lon, 1e-9)
	assert.InDelta(t, 364.0, fra.ElevationFt, 0)
	assert.True(t, fra.HasPosition)

	muc := ds.Airports[1]
	assert.Equal(t, "EU", muc.Continent)
	assert.Equal(t, "DE", muc.Country)
	assert.Equal(t, TypeLargeAirport, muc.Type)
	assert.InDelta(t, 1487.0, muc.ElevationFt, 0)

	noPos := ds.Airports[5]
	assert.Equal(t, "00AA", noPos.Ident)
	assert.False(t, noPos.HasPosition)

	_, err = Decode(strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		in       string
		lat, lon float64
		wantErr  bool
	}{
		{in: "8.5, 50.0", lat: 50, lon: 8.5},
		{in: " -180, -90 ", lat: -90, lon: -180},
		{in: "8.5,50.0", lat: 50, lon: 8.5},
		{in: "8.5", wantErr: true},
		{in: "x, 50", wantErr: true},
		{in: "181, 0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lat, lon, err := ParseCoordinates(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.lat, lat, 0)
			assert.InDelta(t, tt.lon, lon, 0)
		})
	}
}

func TestParseType(t *testing.T) {
	typ, err := ParseType(" SEAPLANE_BASE ")
	require.NoError(t, err)
	assert.Equal(t, TypeSeaplaneBase, typ)

	_, err = ParseType("airstrip")
	assert.Error(t, err)
}

func TestCartesian(t *testing.T) {
	p := Cartesian(0, 0, 0)
	assert.InDelta(t, MeanEarthRadiusFt, p[0], 1e-6)
	assert.InDelta(t, 0, p[1], 1e-6)
	assert.InDelta(t, 0, p[2], 1e-6)

	p = Cartesian(90, 45, 1000)
	assert.InDelta(t, MeanEarthRadiusFt+1000, p[2], 1e-6)

	p = Cartesian(12.3, -45.6, 500)
	r := math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
	assert.InDelta(t, MeanEarthRadiusFt+500, r, 1e-6)
}

func TestGreatCircleFt(t *testing.T) {
	assert.InDelta(t, 0, GreatCircleFt(50, 8, 0, 50, 8), 1e-6)

	// A quarter meridian.
	assert.InDelta(t, MeanEarthRadiusFt*math.Pi/2, GreatCircleFt(0, 0, 0, 90, 0), 1e-3)
}

func TestDatabase(t *testing.T) {
	ctx := context.Background()

	ds, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	entries := Entries(ds.Airports)
	assert.Len(t, entries, 5)

	db, err := Build(ctx, ds.Airports)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 5, db.Len())

	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{"Mainz", 49.99, 8.27, "EDDF"},
		{"Augsburg", 48.37, 10.9, "EDDM"},
		{"Kiel", 54.32, 10.12, "EDDH"},
		{"Boston", 42.36, -71.06, "KJFK"},
		{"Auckland", -36.85, 174.76, "YSSY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.NearestAirport(ctx, tt.lat, tt.lon, 1000)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Ident)

			best, bestDist := "", math.Inf(1)
			for _, a := range ds.Airports {
				if !a.HasPosition {
					continue
				}
				if d := GreatCircleFt(tt.lat, tt.lon, 0, a.Lat, a.Lon); d < bestDist {
					best, bestDist = a.Ident, d
				}
			}
			assert.Equal(t, best, got.Ident)
		})
	}

	_, err = Build(ctx, []Airport{{Ident: "X"}})
	assert.ErrorIs(t, err, ErrNoPositions)
}

func TestDatabaseSnapshot(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	ds, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)
	db, err := Build(ctx, ds.Airports)
	require.NoError(t, err)
	require.NoError(t, db.Index().Publish(ctx, store, "airports.kdt"))

	idx, err := kdgo.OpenCurrent[float64, Airport](ctx, store)
	require.NoError(t, err)
	loaded := NewDatabase(idx)
	defer loaded.Close()

	got, err := loaded.NearestAirport(ctx, 50.1, 8.6, 0)
	require.NoError(t, err)
	assert.Equal(t, ds.Airports[0], got)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "airport-codes.json")
		require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

		ds, err := Load(ctx, path)
		require.NoError(t, err)
		assert.Len(t, ds.Airports, 6)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(ctx, filepath.Join(t.TempDir(), "missing.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("HTTP", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/airport-codes.json" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(sample))
		}))
		defer srv.Close()

		ds, err := Load(ctx, srv.URL+"/airport-codes.json")
		require.NoError(t, err)
		assert.Len(t, ds.Airports, 6)
		assert.Equal(t, 9, ds.Skipped)

		_, err = Load(ctx, srv.URL+"/missing.json")
		assert.ErrorContains(t, err, "404")
	})
}
