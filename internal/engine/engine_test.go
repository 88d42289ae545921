// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/floorplan-diff/internal/geometry"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

var scenario = types.ToleranceProfile{Name: "scenario", PositionTolerance: 0.05, AngleTolerance: 0.01}

func line(id, layer string, x0, y0, x1, y1 float64) types.GeometryEntity {
	return types.GeometryEntity{
		ID: id, Type: types.EntityLine, Layer: layer,
		Vertices: []orb.Point{{x0, y0}, {x1, y1}},
	}
}

func circle(id, layer string, x, y, r float64) types.GeometryEntity {
	return types.GeometryEntity{
		ID: id, Type: types.EntityCircle, Layer: layer, Radius: r,
		Vertices: []orb.Point{{x, y}},
	}
}

func compare(t *testing.T, original, revised []types.GeometryEntity, profile types.ToleranceProfile, opts Options) *types.DiffResult {
	t.Helper()
	res, err := Match(context.Background(), original, revised, profile, opts)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name     string
		original []types.GeometryEntity
		revised  []types.GeometryEntity
		want     types.DiffSummary
	}{
		{
			name:     "A: drift within tolerance",
			original: []types.GeometryEntity{line("L1", "WALL", 0, 0, 10, 0)},
			revised:  []types.GeometryEntity{line("L1", "WALL", 0.02, 0, 10.02, 0)},
			want:     types.DiffSummary{Unchanged: 1, TotalOriginal: 1, TotalRevised: 1},
		},
		{
			name:     "B: move beyond tolerance",
			original: []types.GeometryEntity{line("L1", "WALL", 0, 0, 10, 0)},
			revised:  []types.GeometryEntity{line("L1", "WALL", 1, 0, 11, 0)},
			want:     types.DiffSummary{Modified: 1, TotalOriginal: 1, TotalRevised: 1},
		},
		{
			name:     "C: extra circle",
			original: []types.GeometryEntity{line("L1", "WALL", 0, 0, 10, 0)},
			revised: []types.GeometryEntity{
				line("L1", "WALL", 0, 0, 10, 0),
				circle("C1", "COLUMN", 5, 5, 1),
			},
			want: types.DiffSummary{Added: 1, Unchanged: 1, TotalOriginal: 1, TotalRevised: 2},
		},
		{
			name: "D: everything removed",
			original: []types.GeometryEntity{
				line("L1", "WALL", 0, 0, 10, 0),
				circle("C1", "COLUMN", 5, 5, 1),
			},
			want: types.DiffSummary{Removed: 2, TotalOriginal: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compare(t, tt.original, tt.revised, scenario, DefaultOptions())
			assert.Equal(t, tt.want, res.Summary)
			assert.Equal(t, types.MethodIdentityFallback, res.Normalization.Method)
		})
	}
}

func TestScenarioBPositionDelta(t *testing.T) {
	res := compare(t,
		[]types.GeometryEntity{line("L1", "WALL", 0, 0, 10, 0)},
		[]types.GeometryEntity{line("L1", "WALL", 1, 0, 11, 0)},
		scenario, DefaultOptions())

	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, types.ChangeModified, rec.ChangeType)
	d := rec.AttributeDeltas[types.AttrPosition].Delta.(orb.Point)
	assert.InDelta(t, 1.0, d[0], 1e-9)
	assert.InDelta(t, 0.0, d[1], 1e-9)
}

// plan is a small floor with walls, a door swing, columns, and a room tag.
func plan() []types.GeometryEntity {
	return []types.GeometryEntity{
		line("w1", "A-WALL", 0, 0, 12000, 0),
		line("w2", "A-WALL", 12000, 0, 12000, 8000),
		line("w3", "A-WALL", 12000, 8000, 0, 8000),
		line("w4", "A-WALL", 0, 8000, 0, 0),
		{ID: "d1", Type: types.EntityArc, Layer: "A-DOOR", Radius: 900, Vertices: []orb.Point{{3000, 0}},
			StartAngle: 0, EndAngle: math.Pi / 2},
		circle("c1", "S-COLS", 6000, 4000, 250),
		circle("c2", "S-COLS", 6000, 0, 250),
		{ID: "t1", Type: types.EntityText, Layer: "A-ANNO", TextContent: "OFFICE", Vertices: []orb.Point{{2000, 2000}}},
		{ID: "p1", Type: types.EntityPolyline, Layer: "A-FURN", Closed: true,
			Vertices: []orb.Point{{8000, 5000}, {9000, 5000}, {9000, 6000}, {8000, 6000}}},
	}
}

func TestSelfDiff(t *testing.T) {
	p := plan()
	opts := DefaultOptions()
	opts.IncludeUnchanged = true

	res := compare(t, p, p, types.ToleranceProfile{PositionTolerance: 1, AngleTolerance: 0.01}, opts)

	assert.Equal(t, len(p), res.Summary.Unchanged)
	assert.Zero(t, res.Summary.Changes())
	require.Len(t, res.Records, len(p))
	for _, r := range res.Records {
		assert.Equal(t, types.ChangeUnchanged, r.ChangeType)
		assert.Equal(t, r.OriginalRef.EntityID, r.RevisedRef.EntityID)
	}
}

func TestAddedRemovedSymmetry(t *testing.T) {
	a := plan()
	b := append(plan()[:6], circle("c9", "S-COLS", 9000, 4000, 250), line("w9", "A-WALL", 6000, 0, 6000, 8000))
	profile := types.ToleranceProfile{PositionTolerance: 1, AngleTolerance: 0.01}
	opts := DefaultOptions()
	opts.Normalizer.Fallback = types.FallbackIdentity

	ab := compare(t, a, b, profile, opts)
	ba := compare(t, b, a, profile, opts)

	assert.Equal(t, ab.Summary.Added, ba.Summary.Removed)
	assert.Equal(t, ab.Summary.Removed, ba.Summary.Added)
	assert.Equal(t, ab.Summary.Modified, ba.Summary.Modified)
	assert.Equal(t, 2, ab.Summary.Added)
	assert.Equal(t, 3, ab.Summary.Removed)
}

func TestToleranceMonotonicity(t *testing.T) {
	var original, revised []types.GeometryEntity
	shifts := []float64{0, 0.01, 0.1, 0.5, 2, 30, 400}
	for i, dx := range shifts {
		y := float64(i) * 1000
		original = append(original, line(fmt.Sprintf("l%d", i), "WALL", 0, y, 100, y))
		revised = append(revised, line(fmt.Sprintf("l%d", i), "WALL", dx, y, 100+dx, y))
	}
	// Identity keeps the frame fixed while only the tolerance varies.
	opts := DefaultOptions()
	opts.Normalizer.Fallback = types.FallbackIdentity

	prev := math.MaxInt
	for _, tol := range []float64{0.005, 0.05, 0.2, 1, 5, 50, 500} {
		res := compare(t, original, revised, types.ToleranceProfile{PositionTolerance: tol, AngleTolerance: 0.01}, opts)
		changes := res.Summary.Changes()
		assert.LessOrEqual(t, changes, prev, "tolerance %g", tol)
		prev = changes
	}
	assert.Zero(t, prev)
}

func TestLayerAndTypeIsolation(t *testing.T) {
	res := compare(t,
		[]types.GeometryEntity{
			line("a", "WALL", 0, 0, 10, 0),
			circle("b", "COLS", 0, 0, 1),
		},
		[]types.GeometryEntity{
			line("a", "DOOR", 0, 0, 10, 0),
			{ID: "b", Type: types.EntityArc, Layer: "COLS", Radius: 1, Vertices: []orb.Point{{0, 0}}},
		},
		scenario, DefaultOptions())

	assert.Equal(t, 2, res.Summary.Added)
	assert.Equal(t, 2, res.Summary.Removed)
	assert.Zero(t, res.Summary.Modified+res.Summary.Unchanged)
}

func TestDeterminism(t *testing.T) {
	original := plan()
	revised := plan()
	revised[0] = line("w1", "A-WALL", 0, 0, 12500, 0)
	revised[7].TextContent = "MEETING"
	revised = append(revised, circle("c3", "S-COLS", 6000, 8000, 250))

	profile := types.ToleranceProfile{PositionTolerance: 1, AngleTolerance: 0.01}
	serial := DefaultOptions()
	serial.Matcher.Workers = 1
	parallel := DefaultOptions()
	parallel.Matcher.Workers = 8

	first := compare(t, original, revised, profile, serial)
	assert.Equal(t, first, compare(t, original, revised, profile, serial))
	assert.Equal(t, first, compare(t, original, revised, profile, parallel))

	// Reversed input order changes only the provenance indexes.
	reverse := func(in []types.GeometryEntity) []types.GeometryEntity {
		out := make([]types.GeometryEntity, len(in))
		for i, e := range in {
			out[len(in)-1-i] = e
		}
		return out
	}
	shuffled := compare(t, reverse(original), reverse(revised), profile, parallel)
	assert.Equal(t, first.Summary, shuffled.Summary)
	require.Len(t, shuffled.Records, len(first.Records))
	for i := range first.Records {
		assert.Equal(t, first.Records[i].EntityID, shuffled.Records[i].EntityID)
		assert.Equal(t, first.Records[i].ChangeType, shuffled.Records[i].ChangeType)
		assert.Equal(t, first.Records[i].AttributeDeltas, shuffled.Records[i].AttributeDeltas)
	}
}

func TestGridFallbackStillMatches(t *testing.T) {
	original := plan()
	revised := geometry.TransformAll(types.Translation(500, -200), plan())

	res := compare(t, original, revised, types.ToleranceProfile{PositionTolerance: 1, AngleTolerance: 0.01}, DefaultOptions())

	assert.Equal(t, types.MethodBBoxFallback, res.Normalization.Method)
	assert.InDelta(t, -500, res.Normalization.Transform.TX, 1e-9)
	assert.InDelta(t, 200, res.Normalization.Transform.TY, 1e-9)
	assert.Equal(t, len(original), res.Summary.Unchanged)
	assert.Zero(t, res.Summary.Changes())

	var codes []string
	for _, d := range res.Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, types.DiagBBoxFallback)
}

func TestGridAlignedRevision(t *testing.T) {
	grid := func() []types.GeometryEntity {
		var out []types.GeometryEntity
		for i, x := range []float64{0, 6000, 12000} {
			out = append(out, line(fmt.Sprintf("gx%d", i), "S-GRID", x, -1000, x, 9000))
		}
		for i, y := range []float64{0, 8000} {
			out = append(out, line(fmt.Sprintf("gy%d", i), "S-GRID", -1000, y, 13000, y))
		}
		return out
	}
	original := append(grid(), plan()...)

	// The revision is redrawn at half scale, turned, and offset; column c1
	// also moved 200 units in the real world.
	frame := types.NormalizationTransform{Rotation: 0.2, ScaleX: 2, ScaleY: 2, TX: -300, TY: 700}
	moved := append(grid(), plan()...)
	for i := range moved {
		if moved[i].ID == "c1" {
			moved[i] = circle("c1", "S-COLS", 6200, 4000, 250)
		}
	}
	revised := make([]types.GeometryEntity, len(moved))
	for i, e := range moved {
		c := e.Clone()
		for j, v := range c.Vertices {
			p, err := geometry.Invert(frame, v)
			require.NoError(t, err)
			c.Vertices[j] = p
		}
		c.Radius /= frame.ScaleX
		switch c.Type {
		case types.EntityArc:
			c.StartAngle -= frame.Rotation
			c.EndAngle -= frame.Rotation
		case types.EntityText:
			c.Rotation -= frame.Rotation
		}
		revised[i] = c
	}

	res := compare(t, original, revised, types.ToleranceProfile{PositionTolerance: 1, AngleTolerance: 0.01}, DefaultOptions())

	require.Equal(t, types.MethodGridFit, res.Normalization.Method)
	assert.InDelta(t, 0.2, res.Normalization.Transform.Rotation, 1e-9)
	assert.InDelta(t, 2, res.Normalization.Transform.ScaleX, 1e-9)
	assert.Equal(t, 1, res.Summary.Modified)
	assert.Zero(t, res.Summary.Added+res.Summary.Removed)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "c1", res.Records[0].EntityID)
	d := res.Records[0].AttributeDeltas[types.AttrPosition].Delta.(orb.Point)
	assert.InDelta(t, 200, d[0], 1e-6)
}

func TestInvalidToleranceIsFatal(t *testing.T) {
	tests := []struct {
		name    string
		profile types.ToleranceProfile
		field   string
	}{
		{name: "zero position", profile: types.ToleranceProfile{AngleTolerance: 0.1}, field: "position_tolerance"},
		{name: "negative angle", profile: types.ToleranceProfile{PositionTolerance: 1, AngleTolerance: -1}, field: "angle_tolerance"},
		{name: "nan position", profile: types.ToleranceProfile{PositionTolerance: math.NaN(), AngleTolerance: 1}, field: "position_tolerance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Match(context.Background(), plan(), plan(), tt.profile, DefaultOptions())
			require.Error(t, err)
			assert.Nil(t, res)
			var tolErr *types.ToleranceError
			require.True(t, errors.As(err, &tolErr))
			assert.Equal(t, tt.field, tolErr.Field)
		})
	}
}

func TestInputErrorsAreDiagnostics(t *testing.T) {
	original := []types.GeometryEntity{
		line("a", "WALL", 0, 0, 10, 0),
		{ID: "bad", Type: types.EntityLine, Layer: "WALL", Vertices: []orb.Point{{0, 0}}},
		line("a", "WALL", 50, 50, 60, 50),
	}
	revised := []types.GeometryEntity{
		line("a", "WALL", 0, 0, 10, 0),
		{ID: "nan", Type: types.EntityPoint, Vertices: []orb.Point{{math.Inf(1), 0}}},
		{ID: "x", Type: types.EntityPoint, Vertices: []orb.Point{{0, 0}}, Source: types.SourceOriginal},
	}

	res := compare(t, original, revised, scenario, DefaultOptions())

	assert.Equal(t, 1, res.Summary.TotalOriginal)
	assert.Equal(t, 2, res.Summary.TotalRevised)
	assert.Equal(t, 1, res.Summary.Unchanged)
	assert.Equal(t, 1, res.Summary.Added)

	got := map[string]string{}
	for _, d := range res.Diagnostics {
		if d.EntityID != "" {
			got[string(d.Source)+"/"+d.EntityID] = d.Code
		}
	}
	assert.Equal(t, types.DiagInputError, got["original/bad"])
	assert.Equal(t, types.DiagDuplicateID, got["original/a"])
	assert.Equal(t, types.DiagInputError, got["revised/nan"])
	assert.Equal(t, types.DiagSourceMismatch, got["revised/x"])
}

func TestRecordRefsKeepInputPositions(t *testing.T) {
	bad := types.GeometryEntity{ID: "bad", Type: types.EntityLine, Layer: "WALL", Vertices: []orb.Point{{0, 0}}}
	original := []types.GeometryEntity{
		bad,
		line("g", "WALL", 0, 0, 10, 0),
		line("h", "WALL", 0, 5, 10, 5),
	}
	revised := []types.GeometryEntity{
		{ID: "nan", Type: types.EntityPoint, Vertices: []orb.Point{{math.NaN(), 0}}},
		line("g", "WALL", 0, 0, 10, 0),
		circle("n", "COL", 20, 20, 1),
	}

	opts := DefaultOptions()
	opts.Normalizer.Fallback = types.FallbackIdentity
	opts.IncludeUnchanged = true
	res := compare(t, original, revised, scenario, opts)

	refs := map[string][2]int{}
	for _, r := range res.Records {
		idx := [2]int{-1, -1}
		if r.OriginalRef != nil {
			idx[0] = r.OriginalRef.Index
		}
		if r.RevisedRef != nil {
			idx[1] = r.RevisedRef.Index
		}
		refs[string(r.ChangeType)+":"+r.EntityID] = idx
	}
	assert.Equal(t, map[string][2]int{
		"removed:h":   {2, -1},
		"added:n":     {-1, 2},
		"unchanged:g": {1, 1},
	}, refs)

	only := compare(t, []types.GeometryEntity{bad, line("g", "WALL", 0, 0, 10, 0)}, nil, scenario, opts)
	require.Len(t, only.Records, 1)
	require.NotNil(t, only.Records[0].OriginalRef)
	assert.Equal(t, 1, only.Records[0].OriginalRef.Index)
}

func TestEngineNormalize(t *testing.T) {
	original := plan()
	revised := geometry.TransformAll(types.Translation(10, 10), plan())
	revised = append(revised, types.GeometryEntity{ID: "", Type: types.EntityPoint, Vertices: []orb.Point{{0, 0}}})

	tr, rep := Normalize(original, revised, types.DefaultNormalizerConfig())

	assert.Equal(t, types.MethodBBoxFallback, rep.Normalization.Method)
	assert.InDelta(t, -10, tr.TX, 1e-9)
	assert.InDelta(t, -10, tr.TY, 1e-9)

	var codes []string
	for _, d := range rep.Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, types.DiagInputError)
	assert.Contains(t, codes, types.DiagBBoxFallback)
}

func TestMatchHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Match(ctx, plan(), plan(), scenario, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}
