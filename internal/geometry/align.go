// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// maxCyclicVertices bounds the O(n²) cyclic alignment; larger closed shapes
// use the Hausdorff distance instead.
const maxCyclicVertices = 256

// VertexCost measures how far apart two shapes' vertex sets are. Shapes with
// equal vertex counts are compared point-by-point in order (allowing
// reversal, and any cyclic start for closed shapes); others fall back to
// the symmetric discrete Hausdorff distance. The result is the largest
// per-vertex displacement of the best alignment.
func VertexCost(a, b Shape) float64 {
	pa, pb := a.Points, b.Points
	if len(pa) == 0 || len(pb) == 0 {
		return math.Inf(1)
	}
	if len(pa) != len(pb) {
		return Hausdorff(pa, pb)
	}
	if a.Closed && b.Closed {
		if len(pa) > maxCyclicVertices {
			return Hausdorff(pa, pb)
		}
		return cyclicCost(pa, pb)
	}
	return math.Min(orderedCost(pa, pb, false), orderedCost(pa, pb, true))
}

func orderedCost(a, b []orb.Point, reverse bool) float64 {
	n := len(a)
	worst := 0.0
	for i := 0; i < n; i++ {
		j := i
		if reverse {
			j = n - 1 - i
		}
		if d := planar.Distance(a[i], b[j]); d > worst {
			worst = d
		}
	}
	return worst
}

func cyclicCost(a, b []orb.Point) float64 {
	n := len(a)
	best := math.Inf(1)
	for _, reverse := range []bool{false, true} {
		for shift := 0; shift < n; shift++ {
			worst := 0.0
			for i := 0; i < n && worst < best; i++ {
				j := (i + shift) % n
				if reverse {
					j = ((shift-i)%n + n) % n
				}
				if d := planar.Distance(a[i], b[j]); d > worst {
					worst = d
				}
			}
			if worst < best {
				best = worst
			}
		}
	}
	return best
}

// Hausdorff returns the symmetric discrete Hausdorff distance between two
// vertex sets.
func Hausdorff(a, b []orb.Point) float64 {
	return math.Max(directed(a, b), directed(b, a))
}

func directed(from, to []orb.Point) float64 {
	worst := 0.0
	for _, p := range from {
		nearest := math.Inf(1)
		for _, q := range to {
			if d := planar.DistanceSquared(p, q); d < nearest {
				nearest = d
			}
		}
		if nearest > worst {
			worst = nearest
		}
	}
	return math.Sqrt(worst)
}
