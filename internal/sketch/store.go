package sketch

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// Binder re-attaches a restored layer to whatever view renders it, making
// it selectable and editable again. Installed by the transport layer.
type Binder interface {
	Bind(layer *Layer) error
}

// Store is the ordered collection of all current layers. Insertion order is
// display and export order. Single writer, no internal locking.
type Store struct {
	layers []*Layer
	binder Binder
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// SetBinder installs the view re-attachment hook used by ImportReplace.
func (s *Store) SetBinder(b Binder) {
	s.binder = b
}

// Add appends a layer to the collection.
func (s *Store) Add(layer *Layer) {
	s.layers = append(s.layers, layer)
}

// Remove deletes a layer by identity. Unknown identities are a no-op.
// It reports whether a layer was removed.
func (s *Store) Remove(id string) bool {
	for i, l := range s.layers {
		if l.ID == id {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the collection.
func (s *Store) Clear() {
	s.layers = nil
}

// Get looks a layer up by identity, nil when absent.
func (s *Store) Get(id string) *Layer {
	for _, l := range s.layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// Layers returns the collection in display order. The slice is a copy, the
// layers are not.
func (s *Store) Layers() []*Layer {
	out := make([]*Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Len returns the number of layers.
func (s *Store) Len() int {
	return len(s.layers)
}

// Export serializes every layer into a GeoJSON feature collection in
// collection order. Geometries are cloned, style attributes travel in the
// feature properties and the layer identity in the feature id, so an export
// re-imported through ImportReplace reproduces the collection exactly.
func (s *Store) Export() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range s.layers {
		f := geojson.NewFeature(orb.Clone(l.Geometry))
		f.ID = l.ID
		f.Properties["color"] = l.Style.Color
		f.Properties["weight"] = l.Style.Weight
		fc.Append(f)
	}

	return fc
}

// ExportJSON returns the Export document as bytes, the snapshot form used
// by the history log and the download endpoint.
func (s *Store) ExportJSON() ([]byte, error) {
	return json.Marshal(s.Export())
}

// ImportReplace drops the current collection and rebuilds it from a
// snapshot produced by ExportJSON. Every rebuilt layer is re-bound through
// the Binder; a bind failure leaves the layer in the collection and is
// surfaced as a warning rather than dropped silently.
func (s *Store) ImportReplace(snapshot []byte) error {
	fc, err := geojson.UnmarshalFeatureCollection(snapshot)
	if err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	layers := make([]*Layer, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}

		layer := &Layer{Geometry: f.Geometry}

		if id, ok := f.ID.(string); ok && id != "" {
			layer.ID = id
		} else {
			layer = NewLayer(f.Geometry, Style{})
		}

		if color, ok := f.Properties["color"].(string); ok {
			layer.Style.Color = color
		}
		if weight, ok := f.Properties["weight"].(float64); ok {
			layer.Style.Weight = weight
		}

		layers = append(layers, layer)
	}

	s.layers = layers

	for _, l := range layers {
		if s.binder == nil {
			continue
		}
		if err := s.binder.Bind(l); err != nil {
			log.Warn().
				Str("layer", l.ID).
				Err(err).
				Msg("Restored layer could not be re-bound, it may not be editable")
		}
	}

	return nil
}
