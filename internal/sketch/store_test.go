package sketch_test

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/mapsketch/mapsketch/internal/sketch"
)

// recordingBinder counts bind calls and can be made to fail.
type recordingBinder struct {
	bound []string
	err   error
}

func (b *recordingBinder) Bind(layer *sketch.Layer) error {
	b.bound = append(b.bound, layer.ID)
	return b.err
}

func TestStoreExportRoundTrip(t *testing.T) {
	s := sketch.NewStore()
	line := sketch.NewLayer(orb.LineString{{0, 0}, {1, 1}}, sketch.Style{Color: "#ff0000", Weight: 4})
	point := sketch.NewLayer(orb.Point{77.59, 12.97}, sketch.Style{Color: "#3388ff", Weight: 3})
	s.Add(line)
	s.Add(point)

	snapshot, err := s.ExportJSON()
	require.NoError(t, err)

	restored := sketch.NewStore()
	require.NoError(t, restored.ImportReplace(snapshot))
	require.Equal(t, 2, restored.Len())

	got := restored.Get(line.ID)
	require.NotNil(t, got)
	require.Equal(t, line.Style, got.Style)
	require.Equal(t, line.Geometry, got.Geometry)

	again, err := restored.ExportJSON()
	require.NoError(t, err)
	require.JSONEq(t, string(snapshot), string(again))
}

func TestStoreImportReplaceDropsCurrentLayers(t *testing.T) {
	s := sketch.NewStore()
	s.Add(sketch.NewLayer(orb.Point{0, 0}, sketch.Style{Weight: 3}))
	empty, err := sketch.NewStore().ExportJSON()
	require.NoError(t, err)

	stale := sketch.NewLayer(orb.Point{1, 1}, sketch.Style{Weight: 3})
	s.Add(stale)

	require.NoError(t, s.ImportReplace(empty))
	require.Equal(t, 0, s.Len())
	require.Nil(t, s.Get(stale.ID))
}

func TestStoreImportReplaceBindsEveryLayer(t *testing.T) {
	s := sketch.NewStore()
	a := sketch.NewLayer(orb.Point{0, 0}, sketch.Style{Weight: 3})
	b := sketch.NewLayer(orb.Point{1, 1}, sketch.Style{Weight: 3})
	s.Add(a)
	s.Add(b)

	snapshot, err := s.ExportJSON()
	require.NoError(t, err)

	binder := &recordingBinder{}
	restored := sketch.NewStore()
	restored.SetBinder(binder)
	require.NoError(t, restored.ImportReplace(snapshot))
	require.ElementsMatch(t, []string{a.ID, b.ID}, binder.bound)
}

func TestStoreImportReplaceKeepsLayersOnBindFailure(t *testing.T) {
	s := sketch.NewStore()
	layer := sketch.NewLayer(orb.Point{0, 0}, sketch.Style{Weight: 3})
	s.Add(layer)

	snapshot, err := s.ExportJSON()
	require.NoError(t, err)

	binder := &recordingBinder{err: errors.New("view gone")}
	restored := sketch.NewStore()
	restored.SetBinder(binder)

	require.NoError(t, restored.ImportReplace(snapshot))
	require.Equal(t, 1, restored.Len())
	require.NotNil(t, restored.Get(layer.ID))
}

func TestStoreImportReplaceRejectsMalformedSnapshot(t *testing.T) {
	s := sketch.NewStore()
	require.Error(t, s.ImportReplace([]byte("not geojson")))
}

func TestStoreRemove(t *testing.T) {
	s := sketch.NewStore()
	layer := sketch.NewLayer(orb.Point{0, 0}, sketch.Style{Weight: 3})
	s.Add(layer)

	require.False(t, s.Remove("unknown"))
	require.Equal(t, 1, s.Len())

	require.True(t, s.Remove(layer.ID))
	require.Equal(t, 0, s.Len())
}
