package geom

import (
	"errors"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// ErrInvalidDistance is returned for a non-positive or non-finite buffer
// distance.
var ErrInvalidDistance = errors.New("invalid distance")

// ErrUnsupportedGeometry is returned when an operation receives a geometry
// outside the Point/LineString/Polygon set the engine works with.
var ErrUnsupportedGeometry = errors.New("unsupported geometry")

const circleSegments = 64

// Circle returns a closed ring approximating a geodesic circle of the given
// radius in meters around center.
func Circle(center orb.Point, meters float64, segments int) orb.Ring {
	if segments < 3 {
		segments = circleSegments
	}

	ring := make(orb.Ring, 0, segments+1)
	for i := 0; i < segments; i++ {
		bearing := float64(i) * 360.0 / float64(segments)
		ring = append(ring, geo.PointAtBearingAndDistance(center, bearing, meters))
	}

	return append(ring, ring[0])
}

// Buffer computes a polygon covering everything within the given distance
// (meters) of the source geometry. It is type-agnostic over Point,
// LineString and Polygon sources. Line and polygon sources are densified
// and covered with vertex circles whose convex hull becomes the result, so
// concave sources are over-covered rather than traced exactly.
func Buffer(g orb.Geometry, meters float64) (orb.Polygon, error) {
	if meters <= 0 || math.IsInf(meters, 0) || math.IsNaN(meters) {
		return nil, ErrInvalidDistance
	}

	var seeds []orb.Point
	switch g := g.(type) {
	case orb.Point:
		return orb.Polygon{Circle(g, meters, circleSegments)}, nil
	case orb.LineString:
		seeds = densify([]orb.Point(g), meters/2)
	case orb.Polygon:
		for _, ring := range g {
			seeds = append(seeds, densify([]orb.Point(ring), meters/2)...)
		}
	default:
		return nil, ErrUnsupportedGeometry
	}

	if len(seeds) == 0 {
		return nil, ErrUnsupportedGeometry
	}

	cloud := make([]orb.Point, 0, len(seeds)*16)
	for _, seed := range seeds {
		cloud = append(cloud, Circle(seed, meters, 16)[:16]...)
	}

	return orb.Polygon{convexHull(cloud)}, nil
}

// densify returns the input points plus interpolated points so that no two
// consecutive points are farther apart than maxSpacing meters.
func densify(pts []orb.Point, maxSpacing float64) []orb.Point {
	if len(pts) == 0 {
		return nil
	}

	out := []orb.Point{pts[0]}
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]

		dist := geo.DistanceHaversine(a, b)
		steps := int(math.Ceil(dist / maxSpacing))
		for s := 1; s < steps; s++ {
			t := float64(s) / float64(steps)
			out = append(out, orb.Point{
				a[0] + (b[0]-a[0])*t,
				a[1] + (b[1]-a[1])*t,
			})
		}

		out = append(out, b)
	}

	return out
}

// convexHull builds a closed hull ring over the point cloud using the
// monotone chain algorithm.
func convexHull(pts []orb.Point) orb.Ring {
	sorted := make([]orb.Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	if len(sorted) < 3 {
		ring := orb.Ring(sorted)
		return append(ring, ring[0])
	}

	var lower []orb.Point
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper []orb.Point
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	// drop the duplicated endpoints of each chain, then close the ring
	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	return append(orb.Ring(hull), hull[0])
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}
