package sketch

import (
	"github.com/paulmach/orb"

	"github.com/mapsketch/mapsketch/internal/geom"
)

// capture is an in-progress freehand gesture: the accepted path samples and
// the screen position of the last one, used for the move throttle. closed
// selects the polygon variant over the polyline one.
type capture struct {
	closed bool
	points []orb.Point
	lastPx geom.Pixel
}

// beginCapture starts a freehand gesture at the pointer-down coordinate.
// Basemap panning is suspended for the whole gesture.
func (s *Session) beginCapture(pt orb.Point, px geom.Pixel, closed bool) {
	s.capture = &capture{
		closed: closed,
		points: []orb.Point{pt},
		lastPx: px,
	}
	s.control.SetDragging(false)
	s.control.SetCursor("crosshair")
}

// extendCapture appends a move sample, dropping samples that traveled less
// than the pixel throttle since the last accepted one.
func (s *Session) extendCapture(pt orb.Point, px geom.Pixel) {
	c := s.capture
	if c == nil {
		return
	}

	if px.DistanceSq(c.lastPx) < moveThrottlePx*moveThrottlePx {
		return
	}

	c.points = append(c.points, pt)
	c.lastPx = px
}

// finishCapture ends the gesture on pointer-up. Too few samples is a silent
// abort: panning returns, no layer, no snapshot. Otherwise the path is
// simplified when a tolerance is set, closed for the polygon variant, and
// committed as a new selected layer. Either way the session rests at
// ModeNone; a gesture draws one shape.
func (s *Session) finishCapture() {
	c := s.capture
	if c == nil {
		s.mode = ModeNone
		return
	}
	s.capture = nil

	s.control.SetDragging(true)
	s.control.SetCursor("")

	// a closed ring needs 3 distinct samples to stay a valid polygon
	minSamples := 2
	if c.closed {
		minSamples = 3
	}
	if len(c.points) < minSamples {
		s.mode = ModeNone
		return
	}

	tolerance := s.tolerance()

	var g orb.Geometry
	if c.closed {
		ring := orb.Ring(append(c.points, c.points[0]))
		if tolerance > 0 {
			ring = geom.SimplifyRing(ring, tolerance, s.highQuality)
		}
		g = orb.Polygon{ring}
	} else {
		line := orb.LineString(c.points)
		if tolerance > 0 {
			line = geom.SimplifyLine(line, tolerance, s.highQuality)
		}
		g = line
	}

	s.commitLayer(g)
}
