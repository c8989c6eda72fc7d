// Package geo resolves office addresses to coordinates for contact records.
package geo

import (
	"context"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/bluenorth/prospect-cli/internal/model"
	"github.com/bluenorth/prospect-cli/pkg/geocode"
)

// countryNames maps ISO-ish two-letter hints to the country name appended to
// ambiguous geocoding queries. Keys align with the ccTLD hint table used for
// domain matching.
var countryNames = map[string]string{
	"at": "Austria",
	"be": "Belgium",
	"ch": "Switzerland",
	"de": "Germany",
	"dk": "Denmark",
	"es": "Spain",
	"fi": "Finland",
	"fr": "France",
	"gb": "United Kingdom",
	"ie": "Ireland",
	"it": "Italy",
	"lu": "Luxembourg",
	"nl": "Netherlands",
	"no": "Norway",
	"pl": "Poland",
	"pt": "Portugal",
	"se": "Sweden",
	"uk": "United Kingdom",
	"us": "United States",
}

// CountryName expands a two-letter hint to a country name. Longer hints pass
// through unchanged so "Netherlands" works as well as "nl".
func CountryName(hint string) string {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" {
		return ""
	}
	if name, ok := countryNames[h]; ok {
		return name
	}
	if len(h) == 2 {
		return ""
	}
	return strings.TrimSpace(hint)
}

// Office is a geocoded company location.
type Office struct {
	Address     string
	DisplayName string
	point       *geom.Point
}

// Coordinates returns the office position in lat/lng order.
func (o *Office) Coordinates() model.Coordinates {
	return model.Coordinates{Lat: o.point.Y(), Lng: o.point.X()}
}

// GeoJSON encodes the office position as a GeoJSON Point in lon/lat order.
func (o *Office) GeoJSON() ([]byte, error) {
	return geojson.Marshal(o.point)
}

// Locator geocodes extracted postal addresses.
type Locator struct {
	client geocode.Client
}

// NewLocator creates a Locator. A nil client yields a Locator whose Locate
// always returns nil, so callers need no configuration guard.
func NewLocator(client geocode.Client) *Locator {
	return &Locator{client: client}
}

// Locate geocodes a free-form address, biased by an optional country hint
// when the address does not already name the country. Geocoding is advisory
// enrichment: any failure logs and returns nil rather than surfacing an
// error.
func (l *Locator) Locate(ctx context.Context, address, countryHint string) *Office {
	if l == nil || l.client == nil {
		return nil
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil
	}

	query := address
	if name := CountryName(countryHint); name != "" && !strings.Contains(strings.ToLower(address), strings.ToLower(name)) {
		query = address + ", " + name
	}

	result, err := l.client.Geocode(ctx, query)
	if err != nil {
		zap.L().Debug("geo: geocode failed",
			zap.String("address", address),
			zap.Error(err),
		)
		return nil
	}
	if !result.Matched {
		zap.L().Debug("geo: address not matched", zap.String("address", address))
		return nil
	}

	point := geom.NewPointFlat(geom.XY, []float64{result.Longitude, result.Latitude}).SetSRID(4326)
	return &Office{
		Address:     address,
		DisplayName: result.DisplayName,
		point:       point,
	}
}
