// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/pdiddy/floorplan-diff/internal/geometry"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// Pair is an accepted correspondence with its classification.
type Pair struct {
	Candidate

	// Change is either types.ChangeUnchanged or types.ChangeModified.
	Change types.ChangeType

	// Deltas lists what changed. Empty for unchanged pairs.
	Deltas map[string]types.AttributeDelta
}

// classify decides whether a matched pair changed and records how.
func classify(c Candidate, profile types.ToleranceProfile) Pair {
	o, r := c.Original, c.Revised
	tol := profile.PositionTolerance
	deltas := make(map[string]types.AttributeDelta)

	geomChanged := c.CentroidDistance > tol || (!c.Degenerate && c.VertexCost > tol)

	if c.CentroidDistance > tol {
		deltas[types.AttrPosition] = types.AttributeDelta{
			Before: o.Shape.Centroid,
			After:  r.Shape.Centroid,
			Delta:  orb.Point{r.Shape.Centroid[0] - o.Shape.Centroid[0], r.Shape.Centroid[1] - o.Shape.Centroid[1]},
		}
	}
	if !c.Degenerate {
		// Shape change is measured with the centroids aligned, so a pure
		// move shows up as position only.
		if reshape := centeredCost(o.Shape, r.Shape); reshape > tol || (geomChanged && len(deltas) == 0) {
			if reshape <= tol {
				reshape = c.VertexCost
			}
			deltas[types.AttrShape] = types.AttributeDelta{
				Before: len(o.Shape.Points),
				After:  len(r.Shape.Points),
				Delta:  reshape,
			}
		}
	}

	if a, period, ok := geometry.Orientation(o.Entity, o.Shape); ok {
		if b, p2, ok := geometry.Orientation(r.Entity, r.Shape); ok && p2 == period {
			if d := geometry.AngleDiff(a, b, period); math.Abs(d) > profile.AngleTolerance {
				deltas[types.AttrRotation] = types.AttributeDelta{Before: a, After: b, Delta: d}
			}
		}
	}

	switch o.Entity.Type {
	case types.EntityArc, types.EntityCircle:
		if d := r.Entity.Radius - o.Entity.Radius; math.Abs(d) > tol {
			deltas[types.AttrRadius] = types.AttributeDelta{Before: o.Entity.Radius, After: r.Entity.Radius, Delta: d}
		}
	case types.EntityPolyline:
		if o.Entity.Closed != r.Entity.Closed {
			deltas[types.AttrClosed] = types.AttributeDelta{Before: o.Entity.Closed, After: r.Entity.Closed}
		}
	}

	if profile.AttributeStrict && !o.Entity.Color.Equal(r.Entity.Color) {
		deltas[types.AttrColor] = types.AttributeDelta{Before: o.Entity.Color.String(), After: r.Entity.Color.String()}
	}
	if o.Entity.TextContent != r.Entity.TextContent {
		deltas[types.AttrTextContent] = types.AttributeDelta{
			Before: o.Entity.TextContent,
			After:  r.Entity.TextContent,
			Patch:  textPatch(o.Entity.TextContent, r.Entity.TextContent),
		}
	}
	if o.Entity.BlockName != r.Entity.BlockName {
		deltas[types.AttrBlockName] = types.AttributeDelta{Before: o.Entity.BlockName, After: r.Entity.BlockName}
	}

	p := Pair{Candidate: c, Change: types.ChangeUnchanged}
	if geomChanged || len(deltas) > 0 {
		p.Change = types.ChangeModified
		p.Deltas = deltas
	}
	return p
}

// centeredCost is the vertex cost after moving b so that both centroids
// coincide.
func centeredCost(a, b geometry.Shape) float64 {
	dx := a.Centroid[0] - b.Centroid[0]
	dy := a.Centroid[1] - b.Centroid[1]
	moved := b
	moved.Points = make([]orb.Point, len(b.Points))
	for i, p := range b.Points {
		moved.Points[i] = orb.Point{p[0] + dx, p[1] + dy}
	}
	return geometry.VertexCost(a, moved)
}

func textPatch(before, after string) string {
	patch, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "original",
		ToFile:   "revised",
		Context:  1,
	})
	if err != nil {
		return ""
	}
	return patch
}
