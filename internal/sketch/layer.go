// Package sketch implements the map annotation engine: a session owning an
// ordered collection of drawn layers, single-layer selection with derived
// measurements, snapshot-based undo/redo and the pointer-driven drawing,
// editing and freehand capture tools.
package sketch

import (
	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// Style holds the presentation attributes of a layer.
type Style struct {
	Color  string  `json:"color"`
	Weight float64 `json:"weight"`
}

// Layer is one drawn or derived shape: geometry, style and an identity used
// for selection and removal. Layers are owned by the Store.
type Layer struct {
	ID       string
	Geometry orb.Geometry
	Style    Style
}

// NewLayer wraps a geometry into a layer with a fresh identity.
func NewLayer(g orb.Geometry, style Style) *Layer {
	return &Layer{
		ID:       uuid.NewString(),
		Geometry: g,
		Style:    style,
	}
}
