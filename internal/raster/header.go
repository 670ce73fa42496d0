package raster

import (
	"strconv"
	"strings"

	"github.com/phase-five/access/internal/grid"
)

// BoundingBoxHeader formats a served raster's bounds for the response
// header §6 specifies: decimal comma-separated minLon,minLat,maxLon,maxLat
// in US locale (plain '.' decimal point, no grouping separators).
func BoundingBoxHeader(b grid.Bounds) string {
	vals := []float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return strings.Join(parts, ",")
}
