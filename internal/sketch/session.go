package sketch

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"github.com/mapsketch/mapsketch/internal/geom"
)

// ErrNoSelection is returned by operations that need a selected layer.
var ErrNoSelection = errors.New("no selection")

// NoSelectionText is the measurement placeholder while nothing is selected.
const NoSelectionText = "–"

const (
	// moveThrottlePx is the minimum pointer travel between accepted
	// freehand samples.
	moveThrottlePx = 2.0
	vertexGrabPx   = 8.0
	hitTolerancePx = 8.0

	// simplification slider: 0-10 mapped linearly onto 0-0.0010 degrees
	maxSimplifyLevel = 10
	degreesPerLevel  = 0.0001
)

// MapControl receives the pan/cursor affordance changes the tools need from
// the basemap while a gesture is in progress.
type MapControl interface {
	SetDragging(enabled bool)
	SetCursor(cursor string)
}

type nopControl struct{}

func (nopControl) SetDragging(bool)  {}
func (nopControl) SetCursor(string) {}

// Options configures a new session.
type Options struct {
	Style          Style
	SelectedWeight float64
	HistoryLimit   int
	Control        MapControl
	Binder         Binder
	Zoom           float64
}

// Session owns one user's sketch state: the layer store, the selection, the
// history log, the active mode and any in-progress gesture. All methods run
// on a single caller at a time; the transport serializes access.
type Session struct {
	store   *Store
	history *History

	style          Style
	selectedWeight float64

	mode     Mode
	selected string
	zoom     float64

	simplifyLevel int
	highQuality   bool

	control MapControl

	capture *capture
	vertex  *vertexTool
	rect    *rectTool
	circle  *circleTool
	edit    *editDrag
	drag    *shapeDrag
}

// New creates an empty session and records the initial empty snapshot.
func New(opts Options) *Session {
	if opts.Style.Color == "" {
		opts.Style.Color = "#3388ff"
	}
	if opts.Style.Weight <= 0 {
		opts.Style.Weight = 3
	}
	if opts.SelectedWeight <= 0 {
		opts.SelectedWeight = 5
	}
	if opts.Zoom <= 0 {
		opts.Zoom = 13
	}
	if opts.Control == nil {
		opts.Control = nopControl{}
	}

	s := &Session{
		store:          NewStore(),
		history:        NewHistory(opts.HistoryLimit),
		style:          opts.Style,
		selectedWeight: opts.SelectedWeight,
		zoom:           opts.Zoom,
		control:        opts.Control,
	}
	s.store.SetBinder(opts.Binder)

	s.snapshot()

	return s
}

// Store exposes the layer collection.
func (s *Session) Store() *Store { return s.store }

// History exposes the undo/redo log.
func (s *Session) History() *History { return s.history }

// Mode returns the active interaction mode.
func (s *Session) Mode() Mode { return s.mode }

// Selected returns the identity of the selected layer, empty when none.
func (s *Session) Selected() string { return s.selected }

// Zoom returns the zoom level hit-test thresholds are evaluated at.
func (s *Session) Zoom() float64 { return s.zoom }

// SetZoom updates the zoom level used for pixel-space thresholds.
func (s *Session) SetZoom(zoom float64) {
	if zoom > 0 {
		s.zoom = zoom
	}
}

// SetMode switches the active mode. Any in-progress gesture of the previous
// mode is torn down first, discarding its partial path.
func (s *Session) SetMode(m Mode) {
	s.cancelActive()
	s.mode = m
}

// Cancel discards any in-progress gesture and returns the session to the
// resting mode.
func (s *Session) Cancel() {
	s.cancelActive()
	s.mode = ModeNone
}

// Select sets the selection to the given layer, or clears it with an empty
// identity. Every layer is restyled to the default stroke weight and the
// selected one to the emphasized weight. Reports whether the identity
// resolved to a layer (clearing always succeeds).
func (s *Session) Select(id string) bool {
	if id != "" && s.store.Get(id) == nil {
		return false
	}

	s.selected = id
	for _, l := range s.store.Layers() {
		if l.ID == id {
			l.Style.Weight = s.selectedWeight
		} else {
			l.Style.Weight = s.style.Weight
		}
	}

	return true
}

// Measurement returns the human-readable measurement of the selected layer,
// or the placeholder text when nothing is selected.
func (s *Session) Measurement() string {
	if s.selected == "" {
		return NoSelectionText
	}

	layer := s.store.Get(s.selected)
	if layer == nil {
		return NoSelectionText
	}

	return geom.Describe(layer.Geometry)
}

// Remove deletes a layer by identity and snapshots the result. Removing the
// selected layer clears the selection. Unknown identities are a no-op.
func (s *Session) Remove(id string) bool {
	if !s.store.Remove(id) {
		return false
	}

	if s.selected == id {
		s.selected = ""
	}
	s.snapshot()

	return true
}

// Clear empties the collection and the selection, then snapshots.
func (s *Session) Clear() {
	s.store.Clear()
	s.selected = ""
	s.snapshot()
}

// BufferSelected adds a new polygon layer covering everything within the
// given distance in meters of the selected layer's geometry. The source
// layer is kept and the new layer becomes the selection. Fails without
// mutating anything when nothing is selected or the distance is invalid.
func (s *Session) BufferSelected(meters float64) (*Layer, error) {
	source := s.store.Get(s.selected)
	if source == nil {
		return nil, ErrNoSelection
	}

	buffered, err := geom.Buffer(source.Geometry, meters)
	if err != nil {
		return nil, err
	}

	layer := NewLayer(buffered, s.style)
	s.store.Add(layer)
	s.Select(layer.ID)
	s.snapshot()

	return layer, nil
}

// Undo restores the previous snapshot. No-op once only the initial snapshot
// remains.
func (s *Session) Undo() bool {
	snap, ok := s.history.Undo()
	if !ok {
		return false
	}
	return s.restore(snap)
}

// Redo restores the next snapshot off the redo log, no-op when it is empty.
func (s *Session) Redo() bool {
	snap, ok := s.history.Redo()
	if !ok {
		return false
	}
	return s.restore(snap)
}

func (s *Session) restore(snapshot []byte) bool {
	if err := s.store.ImportReplace(snapshot); err != nil {
		log.Error().Err(err).Msg("Failed to restore snapshot")
		return false
	}

	// snapshots carry their own styles, only drop a dangling selection
	if s.selected != "" && s.store.Get(s.selected) == nil {
		s.selected = ""
	}

	return true
}

// SetSimplification maps a 0-10 slider level onto the freehand tolerance in
// coordinate degrees and toggles the high-quality pass.
func (s *Session) SetSimplification(level int, highQuality bool) {
	if level < 0 {
		level = 0
	} else if level > maxSimplifyLevel {
		level = maxSimplifyLevel
	}
	s.simplifyLevel = level
	s.highQuality = highQuality
}

// SimplifyLabel returns the UI label for the current tolerance, "t=off"
// when simplification is disabled.
func (s *Session) SimplifyLabel() string {
	if s.simplifyLevel == 0 {
		return "t=off"
	}
	return fmt.Sprintf("t=%.4f", s.tolerance())
}

func (s *Session) tolerance() float64 {
	return float64(s.simplifyLevel) * degreesPerLevel
}

// Export serializes the collection to its GeoJSON document.
func (s *Session) Export() ([]byte, error) {
	return s.store.ExportJSON()
}

// PointerDown feeds a pointer-down event with its geographic coordinate and
// screen position into the active mode.
func (s *Session) PointerDown(pt orb.Point, px geom.Pixel) {
	switch s.mode {
	case ModeFreehandPolygon, ModeFreehandPolyline:
		s.beginCapture(pt, px, s.mode == ModeFreehandPolygon)
	case ModeDrawRectangle:
		s.rect = &rectTool{anchor: pt}
	case ModeDrawCircle:
		s.circle = &circleTool{center: pt}
	case ModeEditVertices:
		s.beginVertexGrab(pt)
	case ModeDragShape:
		s.beginShapeDrag(pt)
	}
}

// PointerMove feeds a pointer-move event into the active mode.
func (s *Session) PointerMove(pt orb.Point, px geom.Pixel) {
	switch s.mode {
	case ModeFreehandPolygon, ModeFreehandPolyline:
		s.extendCapture(pt, px)
	case ModeEditVertices:
		s.moveVertex(pt)
	case ModeDragShape:
		s.moveShape(pt)
	}
}

// PointerUp feeds a pointer-up event into the active mode, committing or
// aborting whatever gesture is in progress.
func (s *Session) PointerUp(pt orb.Point, px geom.Pixel) {
	switch s.mode {
	case ModeDrawPoint:
		s.commitLayer(pt)
	case ModeDrawPolyline, ModeDrawPolygon:
		s.addVertex(pt)
	case ModeFreehandPolygon, ModeFreehandPolyline:
		s.finishCapture()
	case ModeDrawRectangle:
		s.commitRectangle(pt)
	case ModeDrawCircle:
		s.commitCircle(pt)
	case ModeEditVertices:
		s.endVertexGrab()
	case ModeDragShape:
		s.endShapeDrag()
	case ModeDeleteShape:
		s.deleteAt(pt)
	}
}

// commitLayer wraps a finished geometry into a new selected layer, snapshots
// and rests one-shot drawing modes back at ModeNone.
func (s *Session) commitLayer(g orb.Geometry) *Layer {
	layer := NewLayer(g, s.style)
	s.store.Add(layer)
	s.Select(layer.ID)
	s.snapshot()

	if !s.mode.sticky() {
		s.mode = ModeNone
	}

	return layer
}

// snapshot records the current collection on the history log. Every
// mutation calls it before control returns to the caller, so a mutation and
// its snapshot are never interleaved with another mutation.
func (s *Session) snapshot() {
	data, err := s.store.ExportJSON()
	if err != nil {
		log.Error().Err(err).Msg("Failed to snapshot collection")
		return
	}
	s.history.Push(data)
}

// cancelActive tears down any in-progress gesture, restoring the basemap
// affordances. Geometry already modified by a live edit or drag is rolled
// back to the last snapshot.
func (s *Session) cancelActive() {
	active := s.capture != nil || s.edit != nil || s.drag != nil
	dirty := (s.edit != nil && s.edit.moved) || (s.drag != nil && s.drag.moved)

	s.capture = nil
	s.vertex = nil
	s.rect = nil
	s.circle = nil
	s.edit = nil
	s.drag = nil

	if dirty {
		if snap, ok := s.history.Top(); ok {
			s.restore(snap)
		}
	}

	if active {
		s.control.SetDragging(true)
		s.control.SetCursor("")
	}
}

// hitLayer returns the topmost layer under the pointer, nil when the click
// landed on empty basemap.
func (s *Session) hitLayer(pt orb.Point) *Layer {
	layers := s.store.Layers()
	for i := len(layers) - 1; i >= 0; i-- {
		if geom.HitTest(layers[i].Geometry, pt, s.zoom, hitTolerancePx) {
			return layers[i]
		}
	}
	return nil
}
