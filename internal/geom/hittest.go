package geom

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// HitTest reports whether a geometry is under the pointer, with a pixel
// tolerance evaluated in web-mercator screen space at the given zoom.
// Polygons additionally hit anywhere in their interior.
func HitTest(g orb.Geometry, pt orb.Point, zoom, tolerancePx float64) bool {
	target := pixelPoint(pt, zoom)
	sq := tolerancePx * tolerancePx

	switch g := g.(type) {
	case orb.Point:
		return planar.DistanceSquared(pixelPoint(g, zoom), target) <= sq
	case orb.LineString:
		return pathWithin([]orb.Point(g), target, zoom, sq)
	case orb.Polygon:
		if planar.PolygonContains(g, pt) {
			return true
		}
		for _, ring := range g {
			if pathWithin([]orb.Point(ring), target, zoom, sq) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// NearestVertex finds the vertex of g closest to the pointer within the
// pixel tolerance. It returns the ring index (always 0 for points and
// lines) and the vertex index within it.
func NearestVertex(g orb.Geometry, pt orb.Point, zoom, tolerancePx float64) (ring, index int, ok bool) {
	target := pixelPoint(pt, zoom)
	best := tolerancePx * tolerancePx
	ring, index = -1, -1

	check := func(r, i int, p orb.Point) {
		if d := planar.DistanceSquared(pixelPoint(p, zoom), target); d <= best {
			best = d
			ring, index = r, i
		}
	}

	switch g := g.(type) {
	case orb.Point:
		check(0, 0, g)
	case orb.LineString:
		for i, p := range g {
			check(0, i, p)
		}
	case orb.Polygon:
		for r, rg := range g {
			// skip the closing duplicate, it moves with vertex 0
			for i := 0; i < len(rg)-1; i++ {
				check(r, i, rg[i])
			}
		}
	}

	return ring, index, ring >= 0
}

// pathWithin reports whether any segment of the path passes within the
// squared pixel tolerance of target.
func pathWithin(pts []orb.Point, target orb.Point, zoom, toleranceSq float64) bool {
	if len(pts) == 1 {
		return planar.DistanceSquared(pixelPoint(pts[0], zoom), target) <= toleranceSq
	}

	for i := 1; i < len(pts); i++ {
		a := pixelPoint(pts[i-1], zoom)
		b := pixelPoint(pts[i], zoom)
		if planar.DistanceFromSegmentSquared(a, b, target) <= toleranceSq {
			return true
		}
	}

	return false
}

func pixelPoint(p orb.Point, zoom float64) orb.Point {
	px := Project(p, zoom)
	return orb.Point{px.X, px.Y}
}
