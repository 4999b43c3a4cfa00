package geom

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// SimplifyLine reduces a polyline within tolerance (degrees). A tolerance of
// zero or a degenerate input is returned unchanged. The fast variant runs a
// radial-distance pre-pass before Douglas-Peucker; highQuality skips the
// pre-pass and keeps more of the original shape. First and last points are
// always preserved. The input slice is never mutated.
func SimplifyLine(ls orb.LineString, tolerance float64, highQuality bool) orb.LineString {
	if tolerance <= 0 || len(ls) < 3 {
		return ls
	}

	// orb simplifiers reduce in place, work on a copy
	work := make(orb.LineString, len(ls))
	copy(work, ls)

	if !highQuality {
		work = radialReduce(work, tolerance)
	}

	return simplify.DouglasPeucker(tolerance).LineString(work)
}

// SimplifyRing reduces a closed ring within tolerance. Closure is kept: the
// first and last coordinate stay identical. When the reduction would drop the
// ring below the 4-point minimum of a valid polygon ring, the input is
// returned unchanged.
func SimplifyRing(r orb.Ring, tolerance float64, highQuality bool) orb.Ring {
	if tolerance <= 0 || len(r) < 5 {
		return r
	}

	out := SimplifyLine(orb.LineString(r), tolerance, highQuality)
	if len(out) < 4 {
		return r
	}

	return orb.Ring(out)
}

// radialReduce drops consecutive points closer than tolerance to the last
// accepted point. Single pass, endpoints kept.
func radialReduce(ls orb.LineString, tolerance float64) orb.LineString {
	sq := tolerance * tolerance

	out := orb.LineString{ls[0]}
	for i := 1; i < len(ls)-1; i++ {
		if planar.DistanceSquared(out[len(out)-1], ls[i]) > sq {
			out = append(out, ls[i])
		}
	}

	return append(out, ls[len(ls)-1])
}
