// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geometry

import (
	"math"

	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// Orientation returns the angle that describes how e is turned, and the
// period after which that angle repeats. ok is false for entities without a
// meaningful orientation (points, circles, isotropic closed shapes).
//
//   - line, open polyline: direction from first to last vertex, period π
//   - closed polyline: principal axis of the vertices, period π
//   - arc: mid-sweep angle, period 2π
//   - text, insert: placement rotation, period 2π
func Orientation(e types.GeometryEntity, s Shape) (angle, period float64, ok bool) {
	switch e.Type {
	case types.EntityLine, types.EntityPolyline:
		if s.Degenerate == DegenerateZeroLength || len(s.Points) < 2 {
			return 0, 0, false
		}
		if s.Closed {
			a, ok := principalAxis(s)
			return a, math.Pi, ok
		}
		first, last := s.Points[0], s.Points[len(s.Points)-1]
		dx, dy := last[0]-first[0], last[1]-first[1]
		if math.Hypot(dx, dy) <= Epsilon {
			return 0, 0, false
		}
		return math.Atan2(dy, dx), math.Pi, true
	case types.EntityArc:
		return e.StartAngle + ArcSweep(e.StartAngle, e.EndAngle)/2, 2 * math.Pi, true
	case types.EntityText, types.EntityInsert:
		return e.Rotation, 2 * math.Pi, true
	}
	return 0, 0, false
}

// principalAxis returns the direction of largest spread of the vertices.
func principalAxis(s Shape) (float64, bool) {
	var sxx, syy, sxy float64
	c := s.Centroid
	for _, p := range s.Points {
		dx, dy := p[0]-c[0], p[1]-c[1]
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	n := float64(len(s.Points))
	sxx, syy, sxy = sxx/n, syy/n, sxy/n
	// Equal spread in every direction has no principal axis.
	if math.Abs(sxx-syy) <= 1e-6*(sxx+syy) && math.Abs(sxy) <= 1e-6*(sxx+syy) {
		return 0, false
	}
	return 0.5 * math.Atan2(2*sxy, sxx-syy), true
}

// AngleDiff returns the signed difference b - a reduced into
// (-period/2, period/2].
func AngleDiff(a, b, period float64) float64 {
	d := math.Mod(b-a, period)
	if d > period/2 {
		d -= period
	} else if d <= -period/2 {
		d += period
	}
	return d
}
