// Package geom implements the geometry algorithms behind the sketch engine:
// polyline simplification, geographic measurement, buffering and the
// web-mercator pixel projection used for screen-space thresholds.
package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// MaxLat is the latitude cutoff of the web-mercator projection.
const MaxLat = 85.05112878

const tileSize = 256.0

// Pixel is a screen-space position in CSS pixels at some zoom level.
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceSq returns the squared pixel distance to other.
func (p Pixel) DistanceSq(other Pixel) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return dx*dx + dy*dy
}

// Project converts a geographic point to world pixel coordinates at the
// given zoom using the standard web-mercator projection (256px tiles).
func Project(p orb.Point, zoom float64) Pixel {
	lat := p.Lat()
	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	scale := tileSize * math.Exp2(zoom)
	siny := math.Sin(lat * math.Pi / 180.0)

	return Pixel{
		X: scale * (0.5 + p.Lon()/360.0),
		Y: scale * (0.5 - math.Log((1+siny)/(1-siny))/(4*math.Pi)),
	}
}

// Unproject converts world pixel coordinates at the given zoom back to a
// geographic point. Inverse of Project.
func Unproject(px Pixel, zoom float64) orb.Point {
	scale := tileSize * math.Exp2(zoom)

	lon := (px.X/scale - 0.5) * 360.0
	mercatorY := math.Pi * (1.0 - 2.0*px.Y/scale)
	lat := (2.0*math.Atan(math.Exp(mercatorY)) - math.Pi*0.5) * (180.0 / math.Pi)

	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	return orb.Point{lon, lat}
}
