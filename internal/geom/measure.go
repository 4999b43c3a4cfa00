package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Length returns the great-circle length of a polyline in meters,
// accumulated segment by segment with the haversine formula.
func Length(ls orb.LineString) float64 {
	var total float64
	for i := 1; i < len(ls); i++ {
		total += geo.DistanceHaversine(ls[i-1], ls[i])
	}

	return total
}

// Area returns the spherical area of a polygon in square meters. The
// underlying signed-area algorithm handles simple non-convex rings; the
// result for self-intersecting rings is deterministic but not guaranteed
// accurate.
func Area(p orb.Polygon) float64 {
	return math.Abs(geo.Area(p))
}

// FormatLength renders a length in meters as kilometers with 3 decimals,
// e.g. "1.234 km".
func FormatLength(meters float64) string {
	return printer.Sprintf("%.3f km", meters/1000.0)
}

// FormatArea renders an area in square meters as square kilometers with
// 3 decimals plus rounded square meters with grouping separators,
// e.g. "1.000 km² (1,000,000 m²)".
func FormatArea(sqMeters float64) string {
	return printer.Sprintf("%.3f km² (%d m²)", sqMeters/1e6, int64(math.Round(sqMeters)))
}

// Describe returns the human-readable measurement of a geometry: area for
// polygons, length for lines, a fixed label for point markers. Anything
// else falls back to the raw GeoJSON type name.
func Describe(g orb.Geometry) string {
	switch g := g.(type) {
	case orb.Point:
		return "marker"
	case orb.LineString:
		return FormatLength(Length(g))
	case orb.Polygon:
		return FormatArea(Area(g))
	default:
		return g.GeoJSONType()
	}
}
