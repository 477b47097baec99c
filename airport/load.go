package airport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// DefaultURL is the public location of the dataset.
const DefaultURL = "https://datahub.io/core/airport-codes/r/airport-codes.json"

// Dataset is the result of decoding airport-codes.json.
type Dataset struct {
	Airports []Airport
	// Skipped counts records that were malformed or failed validation.
	Skipped int
}

// Decode reads a JSON array of airport records. Elements that cannot be
// decoded or fail validation are skipped and counted; only a document that
// is not a JSON array is an error.
func Decode(r io.Reader) (*Dataset, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("airport: decode: %w", err)
	}

	ds := &Dataset{Airports: make([]Airport, 0, len(raw))}
	for _, msg := range raw {
		var rec record
		if err := json.Unmarshal(msg, &rec); err != nil {
			ds.Skipped++
			continue
		}
		a, err := rec.airport()
		if err != nil {
			ds.Skipped++
			continue
		}
		ds.Airports = append(ds.Airports, a)
	}
	return ds, nil
}

// Load decodes the dataset from src, which is either a local file path or
// an http(s) URL.
func Load(ctx context.Context, src string) (*Dataset, error) {
	rc, err := open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return Decode(rc)
}

func open(ctx context.Context, src string) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("airport: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("airport: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("airport: download %s: %w", src, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("airport: download %s: %s", src, resp.Status)
	}
	return resp.Body, nil
}
