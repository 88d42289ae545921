// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package geometry turns entities into comparable planar shapes and provides
// the measurements the normalizer and matcher share: sampling, centroids,
// bounds, affine transforms, alignment costs, and degeneracy checks.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// Epsilon is the length below which a segment counts as zero.
const Epsilon = 1e-9

const (
	defaultArcSegments       = 32
	defaultIntersectionLimit = 512
)

// Degeneracy reasons.
const (
	DegenerateZeroLength       = "zero-length"
	DegenerateZeroRadius       = "zero-radius"
	DegenerateSelfIntersecting = "self-intersecting"
)

// Shape is an entity's sampled outline with the measurements derived from it.
type Shape struct {
	// Points are the sampled vertices. Closed shapes do not repeat their
	// first point at the end.
	Points []orb.Point

	Closed   bool
	Centroid orb.Point
	Bound    orb.Bound
	Length   float64

	// Degenerate names why vertex alignment is meaningless for this shape.
	// Empty for well-formed shapes.
	Degenerate string
}

// Diagonal returns the length of the bounding-box diagonal.
func (s Shape) Diagonal() float64 {
	return planar.Distance(s.Bound.Min, s.Bound.Max)
}

// Sampler converts entities to shapes.
type Sampler struct {
	// ArcSegments is the number of samples on a full circle.
	ArcSegments int

	// SelfIntersectionLimit skips the self-intersection test on polylines
	// with more vertices than this.
	SelfIntersectionLimit int
}

// NewSampler builds a Sampler from matcher settings, applying defaults for
// zero values.
func NewSampler(cfg types.MatcherConfig) Sampler {
	s := Sampler{ArcSegments: cfg.ArcSegments, SelfIntersectionLimit: cfg.SelfIntersectionLimit}
	if s.ArcSegments < 4 {
		s.ArcSegments = defaultArcSegments
	}
	if s.SelfIntersectionLimit <= 0 {
		s.SelfIntersectionLimit = defaultIntersectionLimit
	}
	return s
}

// Sample returns the vertices used for generic comparison. Arcs and circles
// are discretized; polylines drop a repeated closing vertex.
func (s Sampler) Sample(e types.GeometryEntity) []orb.Point {
	if len(e.Vertices) == 0 {
		return nil
	}
	switch e.Type {
	case types.EntityCircle:
		return sampleArc(e.Vertices[0], e.Radius, 0, 2*math.Pi, s.segments(), true)
	case types.EntityArc:
		sweep := ArcSweep(e.StartAngle, e.EndAngle)
		n := int(math.Ceil(float64(s.segments())*sweep/(2*math.Pi))) + 1
		if n < 2 {
			n = 2
		}
		return sampleArc(e.Vertices[0], e.Radius, e.StartAngle, sweep, n, false)
	case types.EntityPolyline:
		pts := append([]orb.Point(nil), e.Vertices...)
		if e.Closed && len(pts) > 2 && pts[0].Equal(pts[len(pts)-1]) {
			pts = pts[:len(pts)-1]
		}
		return pts
	case types.EntityLine:
		return append([]orb.Point(nil), e.Vertices[:2]...)
	}
	return []orb.Point{e.Vertices[0]}
}

func (s Sampler) segments() int {
	if s.ArcSegments < 4 {
		return defaultArcSegments
	}
	return s.ArcSegments
}

// Shape samples e and measures the result.
func (s Sampler) Shape(e types.GeometryEntity) Shape {
	pts := s.Sample(e)
	closed := e.Type == types.EntityCircle || (e.Type == types.EntityPolyline && e.Closed)

	shape := Shape{Points: pts, Closed: closed}
	if len(pts) == 0 {
		return shape
	}
	shape.Bound = orb.MultiPoint(pts).Bound()
	shape.Length = pathLength(pts, closed)
	shape.Centroid = centroid(pts, closed, shape.Length)

	switch e.Type {
	case types.EntityArc, types.EntityCircle:
		if e.Radius <= Epsilon {
			shape.Degenerate = DegenerateZeroRadius
		}
	case types.EntityLine, types.EntityPolyline:
		if shape.Length <= Epsilon {
			shape.Degenerate = DegenerateZeroLength
		} else if e.Type == types.EntityPolyline && len(pts) <= s.limit() && SelfIntersects(pts, closed) {
			shape.Degenerate = DegenerateSelfIntersecting
		}
	}
	return shape
}

func (s Sampler) limit() int {
	if s.SelfIntersectionLimit <= 0 {
		return defaultIntersectionLimit
	}
	return s.SelfIntersectionLimit
}

// ArcSweep returns the counter-clockwise sweep from start to end in (0, 2π].
// Equal angles describe a full circle.
func ArcSweep(start, end float64) float64 {
	sweep := math.Mod(end-start, 2*math.Pi)
	if sweep <= Epsilon {
		sweep += 2 * math.Pi
	}
	return sweep
}

func sampleArc(center orb.Point, radius, start, sweep float64, n int, closed bool) []orb.Point {
	pts := make([]orb.Point, n)
	step := sweep / float64(n-1)
	if closed {
		step = sweep / float64(n)
	}
	for i := range pts {
		a := start + step*float64(i)
		pts[i] = orb.Point{center[0] + radius*math.Cos(a), center[1] + radius*math.Sin(a)}
	}
	return pts
}

func pathLength(pts []orb.Point, closed bool) float64 {
	if len(pts) < 2 {
		return 0
	}
	length := planar.Length(orb.LineString(pts))
	if closed {
		length += planar.Distance(pts[len(pts)-1], pts[0])
	}
	return length
}

// centroid is the length-weighted mean of segment midpoints, which does not
// depend on how densely a path is sampled. Zero-length paths fall back to
// the vertex mean.
func centroid(pts []orb.Point, closed bool, length float64) orb.Point {
	if len(pts) == 1 || length <= Epsilon {
		return vertexMean(pts)
	}
	var cx, cy float64
	segment := func(a, b orb.Point) {
		l := planar.Distance(a, b)
		cx += l * (a[0] + b[0]) / 2
		cy += l * (a[1] + b[1]) / 2
	}
	for i := 1; i < len(pts); i++ {
		segment(pts[i-1], pts[i])
	}
	if closed {
		segment(pts[len(pts)-1], pts[0])
	}
	return orb.Point{cx / length, cy / length}
}

func vertexMean(pts []orb.Point) orb.Point {
	var sx, sy float64
	for _, p := range pts {
		sx += p[0]
		sy += p[1]
	}
	n := float64(len(pts))
	return orb.Point{sx / n, sy / n}
}

// SelfIntersects reports whether any two non-adjacent segments of the path
// intersect.
func SelfIntersects(pts []orb.Point, closed bool) bool {
	n := len(pts)
	segs := n - 1
	if closed {
		segs = n
	}
	if segs < 3 {
		return false
	}
	seg := func(i int) (orb.Point, orb.Point) {
		return pts[i], pts[(i+1)%n]
	}
	for i := 0; i < segs; i++ {
		a1, a2 := seg(i)
		for j := i + 2; j < segs; j++ {
			if closed && i == 0 && j == segs-1 {
				continue // adjacent through the closing vertex
			}
			b1, b2 := seg(j)
			if SegmentsIntersect(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// SegmentsIntersect reports whether segments p1p2 and q1q2 share a point.
func SegmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > Epsilon && d2 < -Epsilon) || (d1 < -Epsilon && d2 > Epsilon)) &&
		((d3 > Epsilon && d4 < -Epsilon) || (d3 < -Epsilon && d4 > Epsilon)) {
		return true
	}
	switch {
	case math.Abs(d1) <= Epsilon && onSegment(q1, q2, p1):
		return true
	case math.Abs(d2) <= Epsilon && onSegment(q1, q2, p2):
		return true
	case math.Abs(d3) <= Epsilon && onSegment(p1, p2, q1):
		return true
	case math.Abs(d4) <= Epsilon && onSegment(p1, p2, q2):
		return true
	}
	return false
}

func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func onSegment(a, b, p orb.Point) bool {
	return math.Min(a[0], b[0])-Epsilon <= p[0] && p[0] <= math.Max(a[0], b[0])+Epsilon &&
		math.Min(a[1], b[1])-Epsilon <= p[1] && p[1] <= math.Max(a[1], b[1])+Epsilon
}
