package sketch

import "fmt"

// Mode identifies the single active pointer interaction. At most one mode is
// active per session; entering any mode tears down the previous one.
type Mode int

const (
	ModeNone Mode = iota
	ModeDrawPoint
	ModeDrawPolyline
	ModeDrawPolygon
	ModeDrawRectangle
	ModeDrawCircle
	ModeFreehandPolygon
	ModeFreehandPolyline
	ModeEditVertices
	ModeDragShape
	ModeDeleteShape
)

var modeNames = map[Mode]string{
	ModeNone:             "none",
	ModeDrawPoint:        "point",
	ModeDrawPolyline:     "polyline",
	ModeDrawPolygon:      "polygon",
	ModeDrawRectangle:    "rectangle",
	ModeDrawCircle:       "circle",
	ModeFreehandPolygon:  "freehand-polygon",
	ModeFreehandPolyline: "freehand-polyline",
	ModeEditVertices:     "edit",
	ModeDragShape:        "drag",
	ModeDeleteShape:      "delete",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode maps a wire name back to a Mode.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return ModeNone, fmt.Errorf("unknown mode %q", name)
}

// sticky reports whether the mode stays active after completing an action.
// Drawing tools are one-shot and rest back at ModeNone; edit, drag and
// delete keep going until switched off.
func (m Mode) sticky() bool {
	switch m {
	case ModeEditVertices, ModeDragShape, ModeDeleteShape:
		return true
	default:
		return false
	}
}
