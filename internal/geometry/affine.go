// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// Apply maps p through t.
func Apply(t types.NormalizationTransform, p orb.Point) orb.Point {
	sin, cos := math.Sincos(t.Rotation)
	x := t.ScaleX * p[0]
	y := t.ScaleY * p[1]
	return orb.Point{cos*x - sin*y + t.TX, sin*x + cos*y + t.TY}
}

// Invert maps p from the target frame of t back to its source frame.
func Invert(t types.NormalizationTransform, p orb.Point) (orb.Point, error) {
	if !t.Invertible() {
		return orb.Point{}, fmt.Errorf("transform is not invertible: scale (%g, %g)", t.ScaleX, t.ScaleY)
	}
	sin, cos := math.Sincos(t.Rotation)
	x := p[0] - t.TX
	y := p[1] - t.TY
	rx := cos*x + sin*y
	ry := -sin*x + cos*y
	return orb.Point{rx / t.ScaleX, ry / t.ScaleY}, nil
}

// TransformEntity returns a copy of e with every vertex mapped through t.
// Radii scale by the geometric mean of the scale factors; arc angles and
// placement rotations turn with the transform.
func TransformEntity(t types.NormalizationTransform, e types.GeometryEntity) types.GeometryEntity {
	out := e.Clone()
	for i, v := range out.Vertices {
		out.Vertices[i] = Apply(t, v)
	}
	switch e.Type {
	case types.EntityArc, types.EntityCircle:
		out.Radius = e.Radius * math.Sqrt(math.Abs(t.ScaleX*t.ScaleY))
		if e.Type == types.EntityArc {
			out.StartAngle = e.StartAngle + t.Rotation
			out.EndAngle = e.EndAngle + t.Rotation
		}
	case types.EntityText, types.EntityInsert:
		out.Rotation = e.Rotation + t.Rotation
	}
	return out
}

// TransformAll maps every entity through t. The input slice is not modified.
func TransformAll(t types.NormalizationTransform, entities []types.GeometryEntity) []types.GeometryEntity {
	out := make([]types.GeometryEntity, len(entities))
	for i, e := range entities {
		out[i] = TransformEntity(t, e)
	}
	return out
}

// Bounds returns the bounding box of every vertex in entities, and false
// when there are none.
func Bounds(entities []types.GeometryEntity) (orb.Bound, bool) {
	var (
		b     orb.Bound
		found bool
	)
	for _, e := range entities {
		for _, v := range e.Vertices {
			if !found {
				b = orb.Bound{Min: v, Max: v}
				found = true
				continue
			}
			b = b.Extend(v)
		}
		// Arcs and circles reach radius beyond their center.
		if (e.Type == types.EntityArc || e.Type == types.EntityCircle) && len(e.Vertices) > 0 && e.Radius > 0 {
			c := e.Vertices[0]
			b = b.Extend(orb.Point{c[0] - e.Radius, c[1] - e.Radius})
			b = b.Extend(orb.Point{c[0] + e.Radius, c[1] + e.Radius})
		}
	}
	return b, found
}
