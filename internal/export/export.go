// Package export delivers finished discovery results to external systems:
// the Notion lead database and Salesforce. Exporters consume a result after
// the pipeline has persisted it; a failed export marks its phase failed but
// never invalidates the run.
package export

import (
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/bluenorth/prospect-cli/internal/model"
)

// officeGeoJSON renders geocoded coordinates as a GeoJSON Point in lon/lat
// order. Empty when there is nothing to encode.
func officeGeoJSON(loc *model.Coordinates) string {
	if loc == nil {
		return ""
	}
	point := geom.NewPointFlat(geom.XY, []float64{loc.Lng, loc.Lat}).SetSRID(4326)
	data, err := geojson.Marshal(point)
	if err != nil {
		return ""
	}
	return string(data)
}

// formatPeople renders decision makers as "Name (Title)" strings.
func formatPeople(people []model.Person) []string {
	if len(people) == 0 {
		return nil
	}
	out := make([]string, 0, len(people))
	for _, p := range people {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		if title := strings.TrimSpace(p.Title); title != "" {
			out = append(out, name+" ("+title+")")
			continue
		}
		out = append(out, name)
	}
	return out
}

// splitName breaks a display name into first and last parts. The last token
// becomes the last name; a single-token name has no first name.
func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
