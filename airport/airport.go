package airport

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Type is the kind of an airport as used in the dataset.
type Type string

const (
	TypeClosed        Type = "closed"
	TypeBalloonport   Type = "balloonport"
	TypeHeliport      Type = "heliport"
	TypeLargeAirport  Type = "large_airport"
	TypeMediumAirport Type = "medium_airport"
	TypeSmallAirport  Type = "small_airport"
	TypeSeaplaneBase  Type = "seaplane_base"
)

// ParseType parses an airport type case-insensitively.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeClosed, TypeBalloonport, TypeHeliport, TypeLargeAirport,
		TypeMediumAirport, TypeSmallAirport, TypeSeaplaneBase:
		return t, nil
	default:
		return "", fmt.Errorf("unknown airport type %q", s)
	}
}

var continents = []string{"AF", "NA", "OC", "AN", "AS", "EU", "SA"}

var isoRegionPattern = regexp.MustCompile(`^[A-Z]{2}-[A-Z0-9]{1,3}$`)

const (
	minElevationFt = -10000
	maxElevationFt = 40000
)

// Airport is a validated record of the dataset. Optional fields that were
// missing or null are empty.
type Airport struct {
	Ident        string  `json:"ident"`
	Name         string  `json:"name,omitempty"`
	Municipality string  `json:"municipality,omitempty"`
	IATA         string  `json:"iata,omitempty"`
	Continent    string  `json:"continent,omitempty"`
	Country      string  `json:"country,omitempty"`
	Region       string  `json:"region,omitempty"`
	Type         Type    `json:"type,omitempty"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	ElevationFt  float64 `json:"elevation_ft"`
	HasPosition  bool    `json:"has_position"`
}

// Point returns the Cartesian position of the airport.
func (a Airport) Point() []float64 {
	return Cartesian(a.Lat, a.Lon, a.ElevationFt)
}

// text decodes a JSON string, number or null into its textual form.
type text struct {
	value string
	valid bool
}

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = text{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text{value: s, valid: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*t = text{value: n.String(), valid: true}
	return nil
}

// record mirrors one element of airport-codes.json.
type record struct {
	Ident        text `json:"ident"`
	Name         text `json:"name"`
	Municipality text `json:"municipality"`
	IATACode     text `json:"iata_code"`
	Continent    text `json:"continent"`
	ISOCountry   text `json:"iso_country"`
	ISORegion    text `json:"iso_region"`
	Coordinates  text `json:"coordinates"`
	ElevationFt  text `json:"elevation_ft"`
	Type         text `json:"type"`
}

func (r *record) airport() (Airport, error) {
	a := Airport{
		Ident:        strings.TrimSpace(r.Ident.value),
		Name:         strings.TrimSpace(r.Name.value),
		Municipality: strings.TrimSpace(r.Municipality.value),
	}

	if r.IATACode.valid && r.IATACode.value != "" {
		code := r.IATACode.value
		if !isIATA(code) {
			return Airport{}, fmt.Errorf("invalid IATA code %q", code)
		}
		a.IATA = code
	}

	if r.Continent.valid {
		c := strings.ToUpper(strings.TrimSpace(r.Continent.value))
		if !slices.Contains(continents, c) {
			return Airport{}, fmt.Errorf("invalid continent %q", r.Continent.value)
		}
		a.Continent = c
	}

	if r.ISOCountry.valid {
		c := strings.ToUpper(strings.TrimSpace(r.ISOCountry.value))
		if !isCountry(c) {
			return Airport{}, fmt.Errorf("invalid ISO country %q", r.ISOCountry.value)
		}
		a.Country = c
	}

	if r.ISORegion.valid {
		if !isoRegionPattern.MatchString(r.ISORegion.value) {
			return Airport{}, fmt.Errorf("invalid ISO region %q", r.ISORegion.value)
		}
		a.Region = r.ISORegion.value
	}

	if r.Type.valid {
		t, err := ParseType(r.Type.value)
		if err != nil {
			return Airport{}, err
		}
		a.Type = t
	}

	if r.Coordinates.valid {
		lat, lon, err := ParseCoordinates(r.Coordinates.value)
		if err != nil {
			return Airport{}, err
		}
		a.Lat, a.Lon, a.HasPosition = lat, lon, true
	}

	if r.ElevationFt.valid && strings.TrimSpace(r.ElevationFt.value) != "" {
		elev, err := strconv.ParseFloat(strings.TrimSpace(r.ElevationFt.value), 64)
		if err != nil {
			return Airport{}, fmt.Errorf("invalid elevation %q", r.ElevationFt.value)
		}
		if elev < minElevationFt || elev > maxElevationFt {
			return Airport{}, fmt.Errorf("elevation %g ft out of range", elev)
		}
		a.ElevationFt = elev
	}

	return a, nil
}

// ParseCoordinates parses the dataset's "lon, lat" notation in degrees.
func ParseCoordinates(s string) (lat, lon float64, err error) {
	lonStr, latStr, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid coordinates %q", s)
	}
	if lon, err = strconv.ParseFloat(strings.TrimSpace(lonStr), 64); err != nil {
		return 0, 0, fmt.Errorf("invalid coordinates %q", s)
	}
	if lat, err = strconv.ParseFloat(strings.TrimSpace(latStr), 64); err != nil {
		return 0, 0, fmt.Errorf("invalid coordinates %q", s)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("coordinates %q out of range", s)
	}
	return lat, lon, nil
}

func isIATA(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, c := range []byte(s) {
		if !('A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

func isCountry(s string) bool {
	return len(s) == 2 && 'A' <= s[0] && s[0] <= 'Z' && 'A' <= s[1] && s[1] <= 'Z'
}

// MeanEarthRadiusFt is the mean Earth radius of 6371.001 km in feet.
const MeanEarthRadiusFt = 6371.001 * 1000 / 0.3048

// Cartesian maps a position in degrees and feet to Earth-centered
// coordinates in feet.
func Cartesian(lat, lon, elevationFt float64) []float64 {
	r := MeanEarthRadiusFt + elevationFt
	phi := lat * math.Pi / 180
	lambda := lon * math.Pi / 180
	return []float64{
		r * math.Cos(phi) * math.Cos(lambda),
		r * math.Cos(phi) * math.Sin(lambda),
		r * math.Sin(phi),
	}
}

// GreatCircleFt returns the great-circle distance in feet from the first
// position, at its elevation, to the second position.
func GreatCircleFt(lat1, lon1, elevationFt, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dLambda := (lon1 - lon2) * math.Pi / 180

	a := math.Cos(phi2) * math.Sin(dLambda)
	b := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	c := math.Sin(phi1)*math.Sin(phi2) + math.Cos(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	return (MeanEarthRadiusFt + elevationFt) * math.Atan2(math.Sqrt(a*a+b*b), c)
}
