package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// LocateAlong returns the normalized arclength position in [0,1] of the point
// on line closest to p. Degenerate lines return 0.
func LocateAlong(line orb.LineString, p orb.Point) float64 {
	total := planar.Length(line)
	if len(line) < 2 || total == 0 {
		return 0
	}

	best, bestDist, walked := 0.0, math.Inf(1), 0.0
	for i := 0; i < len(line)-1; i++ {
		a, b := line[i], line[i+1]
		segLen := planar.Distance(a, b)
		t := 0.0
		if segLen > 0 {
			t = ((p[0]-a[0])*(b[0]-a[0]) + (p[1]-a[1])*(b[1]-a[1])) / (segLen * segLen)
			t = math.Max(0, math.Min(1, t))
		}
		q := orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
		if d := planar.DistanceSquared(p, q); d < bestDist {
			bestDist = d
			best = walked + t*segLen
		}
		walked += segLen
	}
	return best / total
}

// Substring returns the part of line between the normalized positions from
// and to, with interpolated end points.
func Substring(line orb.LineString, from, to float64) orb.LineString {
	total := planar.Length(line)
	if len(line) < 2 || total == 0 {
		return line
	}
	from = math.Max(0, math.Min(1, from)) * total
	to = math.Max(0, math.Min(1, to)) * total

	out := orb.LineString{interpolate(line, from)}
	walked := 0.0
	for i := 0; i < len(line)-1; i++ {
		walked += planar.Distance(line[i], line[i+1])
		if walked > from && walked < to {
			out = append(out, line[i+1])
		}
	}
	return append(out, interpolate(line, to))
}

func interpolate(line orb.LineString, at float64) orb.Point {
	walked := 0.0
	for i := 0; i < len(line)-1; i++ {
		a, b := line[i], line[i+1]
		segLen := planar.Distance(a, b)
		if segLen > 0 && walked+segLen >= at {
			t := (at - walked) / segLen
			return orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
		}
		walked += segLen
	}
	return line[len(line)-1]
}

// TrimToPoint cuts line at the projection of p. Trimming the start keeps the
// part after p, trimming the end keeps the part before it.
func TrimToPoint(line orb.LineString, p orb.Point, trimStart bool) orb.LineString {
	if len(line) < 2 || planar.Length(line) == 0 {
		return line
	}
	t := LocateAlong(line, p)
	if trimStart {
		return Substring(line, t, 1)
	}
	return Substring(line, 0, t)
}
