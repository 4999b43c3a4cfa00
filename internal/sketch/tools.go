package sketch

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/mapsketch/mapsketch/internal/geom"
)

// vertexTool collects clicked vertices for the polyline/polygon drawing
// tools until Finish commits them.
type vertexTool struct {
	closed bool
	points []orb.Point
}

// rectTool remembers the pointer-down corner of a rectangle drag.
type rectTool struct {
	anchor orb.Point
}

// circleTool remembers the center of a circle drag.
type circleTool struct {
	center orb.Point
}

// editDrag is an in-progress vertex move on a layer.
type editDrag struct {
	layer *Layer
	ring  int
	index int
	moved bool
}

// shapeDrag is an in-progress whole-shape translation.
type shapeDrag struct {
	layer *Layer
	last  orb.Point
	moved bool
}

// addVertex appends a clicked vertex to the polyline/polygon in progress.
func (s *Session) addVertex(pt orb.Point) {
	if s.vertex == nil {
		s.vertex = &vertexTool{closed: s.mode == ModeDrawPolygon}
	}
	s.vertex.points = append(s.vertex.points, pt)
}

// Finish commits the polyline/polygon drawing tool in progress. Too few
// vertices is a silent abort. Without a tool in progress it is a no-op.
func (s *Session) Finish() {
	t := s.vertex
	if t == nil {
		return
	}
	s.vertex = nil

	if t.closed {
		if len(t.points) < 3 {
			s.mode = ModeNone
			return
		}
		ring := orb.Ring(append(t.points, t.points[0]))
		s.commitLayer(orb.Polygon{ring})
		return
	}

	if len(t.points) < 2 {
		s.mode = ModeNone
		return
	}
	s.commitLayer(orb.LineString(t.points))
}

// commitRectangle closes a rectangle drag, committing the axis-aligned ring
// spanned by the anchor and the release point. A degenerate drag with zero
// width or height aborts silently.
func (s *Session) commitRectangle(pt orb.Point) {
	t := s.rect
	if t == nil {
		return
	}
	s.rect = nil

	if t.anchor[0] == pt[0] || t.anchor[1] == pt[1] {
		s.mode = ModeNone
		return
	}

	minLon := math.Min(t.anchor[0], pt[0])
	maxLon := math.Max(t.anchor[0], pt[0])
	minLat := math.Min(t.anchor[1], pt[1])
	maxLat := math.Max(t.anchor[1], pt[1])

	ring := orb.Ring{
		{minLon, minLat},
		{maxLon, minLat},
		{maxLon, maxLat},
		{minLon, maxLat},
		{minLon, minLat},
	}
	s.commitLayer(orb.Polygon{ring})
}

// commitCircle closes a circle drag: the radius is the great-circle
// distance from the center to the release point, the committed geometry a
// polygon approximation of the circle.
func (s *Session) commitCircle(pt orb.Point) {
	t := s.circle
	if t == nil {
		return
	}
	s.circle = nil

	radius := geo.DistanceHaversine(t.center, pt)
	if radius <= 0 {
		s.mode = ModeNone
		return
	}

	s.commitLayer(orb.Polygon{geom.Circle(t.center, radius, 64)})
}

// beginVertexGrab picks up the vertex under the pointer. The selected layer
// gets first claim, then the rest topmost first.
func (s *Session) beginVertexGrab(pt orb.Point) {
	var candidates []*Layer
	if sel := s.store.Get(s.selected); sel != nil {
		candidates = append(candidates, sel)
	}
	layers := s.store.Layers()
	for i := len(layers) - 1; i >= 0; i-- {
		if layers[i].ID != s.selected {
			candidates = append(candidates, layers[i])
		}
	}

	for _, layer := range candidates {
		if ring, index, ok := geom.NearestVertex(layer.Geometry, pt, s.zoom, vertexGrabPx); ok {
			s.edit = &editDrag{layer: layer, ring: ring, index: index}
			s.control.SetDragging(false)
			s.control.SetCursor("move")
			return
		}
	}
}

// moveVertex drags the grabbed vertex to the pointer coordinate, keeping
// polygon ring closure intact.
func (s *Session) moveVertex(pt orb.Point) {
	e := s.edit
	if e == nil {
		return
	}

	switch g := e.layer.Geometry.(type) {
	case orb.Point:
		e.layer.Geometry = pt
	case orb.LineString:
		g[e.index] = pt
	case orb.Polygon:
		ring := g[e.ring]
		ring[e.index] = pt
		if e.index == 0 {
			ring[len(ring)-1] = pt
		}
	}

	e.moved = true
}

// endVertexGrab releases the vertex and snapshots the edit. Edit mode stays
// active for the next grab.
func (s *Session) endVertexGrab() {
	e := s.edit
	if e == nil {
		return
	}
	s.edit = nil

	s.control.SetDragging(true)
	s.control.SetCursor("")

	if e.moved {
		s.snapshot()
	}
}

// beginShapeDrag picks up the layer under the pointer for translation.
func (s *Session) beginShapeDrag(pt orb.Point) {
	layer := s.hitLayer(pt)
	if layer == nil {
		return
	}

	s.drag = &shapeDrag{layer: layer, last: pt}
	s.control.SetDragging(false)
	s.control.SetCursor("grabbing")
}

// moveShape translates the dragged layer by the pointer delta.
func (s *Session) moveShape(pt orb.Point) {
	d := s.drag
	if d == nil {
		return
	}

	d.layer.Geometry = translate(d.layer.Geometry, pt[0]-d.last[0], pt[1]-d.last[1])
	d.last = pt
	d.moved = true
}

// endShapeDrag drops the layer and snapshots the move. Drag mode stays
// active.
func (s *Session) endShapeDrag() {
	d := s.drag
	if d == nil {
		return
	}
	s.drag = nil

	s.control.SetDragging(true)
	s.control.SetCursor("")

	if d.moved {
		s.snapshot()
	}
}

// deleteAt removes the layer under the pointer. Delete mode stays active.
func (s *Session) deleteAt(pt orb.Point) {
	if layer := s.hitLayer(pt); layer != nil {
		s.Remove(layer.ID)
	}
}

// translate shifts a geometry by a lon/lat delta, in place where possible.
func translate(g orb.Geometry, dLon, dLat float64) orb.Geometry {
	switch g := g.(type) {
	case orb.Point:
		return orb.Point{g[0] + dLon, g[1] + dLat}
	case orb.LineString:
		for i := range g {
			g[i][0] += dLon
			g[i][1] += dLat
		}
		return g
	case orb.Polygon:
		for _, ring := range g {
			for i := range ring {
				ring[i][0] += dLon
				ring[i][1] += dLat
			}
		}
		return g
	default:
		return g
	}
}
