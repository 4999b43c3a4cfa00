package geom_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/mapsketch/mapsketch/internal/geom"
)

func TestProjectUnprojectRoundTrip(t *testing.T) {
	points := []orb.Point{
		{0, 0},
		{77.59, 12.97},
		{-122.42, 37.77},
		{179.9, -84.9},
	}

	for _, zoom := range []float64{1, 7, 18} {
		for _, p := range points {
			back := geom.Unproject(geom.Project(p, zoom), zoom)
			require.InDelta(t, p.Lon(), back.Lon(), 1e-6)
			require.InDelta(t, p.Lat(), back.Lat(), 1e-6)
		}
	}
}

func TestProjectClampsLatitude(t *testing.T) {
	pole := geom.Project(orb.Point{0, 90}, 4)
	cutoff := geom.Project(orb.Point{0, geom.MaxLat}, 4)
	require.Equal(t, cutoff, pole)
}

func TestPixelDistance(t *testing.T) {
	require.Equal(t, 25.0, geom.Pixel{X: 3, Y: 4}.DistanceSq(geom.Pixel{}))
}
