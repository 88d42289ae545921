// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/floorplan-diff/internal/geometry"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// gridDrawing builds a plan with vertical axes at xs, horizontal axes at ys,
// and a handful of walls. Vertical axes carry numbered bubbles when
// labels is non-nil.
func gridDrawing(xs, ys []float64, labels []string) []types.GeometryEntity {
	var out []types.GeometryEntity
	for i, x := range xs {
		out = append(out, types.GeometryEntity{
			ID: fmt.Sprintf("gx%d", i), Type: types.EntityLine, Layer: "S-GRID",
			Vertices: []orb.Point{{x, -1000}, {x, 13000}},
		})
		if labels != nil {
			out = append(out,
				types.GeometryEntity{
					ID: fmt.Sprintf("bx%d", i), Type: types.EntityCircle, Layer: "S-GRID",
					Vertices: []orb.Point{{x, 13500}}, Radius: 400,
				},
				types.GeometryEntity{
					ID: fmt.Sprintf("tx%d", i), Type: types.EntityText, Layer: "S-GRID",
					Vertices: []orb.Point{{x - 100, 13450}}, TextContent: labels[i],
				})
		}
	}
	for i, y := range ys {
		out = append(out, types.GeometryEntity{
			ID: fmt.Sprintf("gy%d", i), Type: types.EntityLine, Layer: "S-GRID",
			Vertices: []orb.Point{{-1000, y}, {13000, y}},
		})
	}
	out = append(out,
		types.GeometryEntity{ID: "w1", Type: types.EntityLine, Layer: "A-WALL", Vertices: []orb.Point{{0, 0}, {6000, 0}}},
		types.GeometryEntity{ID: "w2", Type: types.EntityLine, Layer: "A-WALL", Vertices: []orb.Point{{6000, 0}, {6000, 8000}}},
	)
	return out
}

// drawIn returns entities as they would be drawn in a frame that t maps
// back onto the original.
func drawIn(t *testing.T, tr types.NormalizationTransform, entities []types.GeometryEntity) []types.GeometryEntity {
	t.Helper()
	out := make([]types.GeometryEntity, len(entities))
	for i, e := range entities {
		c := e.Clone()
		for j, v := range c.Vertices {
			p, err := geometry.Invert(tr, v)
			require.NoError(t, err)
			c.Vertices[j] = p
		}
		c.Radius = e.Radius / tr.ScaleX
		out[i] = c
	}
	return out
}

func TestNormalizeRecoversGridTransform(t *testing.T) {
	want := types.NormalizationTransform{Rotation: 0.1, ScaleX: 0.5, ScaleY: 0.5, TX: 250, TY: -40}
	original := gridDrawing([]float64{0, 6000, 12000}, []float64{0, 8000}, nil)
	revised := drawIn(t, want, original)

	got, rep := Normalize(original, revised, types.DefaultNormalizerConfig())

	assert.Equal(t, types.MethodGridFit, rep.Normalization.Method)
	assert.Equal(t, 6, rep.Normalization.GridNodes)
	assert.InDelta(t, want.Rotation, got.Rotation, 1e-9)
	assert.InDelta(t, want.ScaleX, got.ScaleX, 1e-9)
	assert.InDelta(t, want.ScaleY, got.ScaleY, 1e-9)
	assert.InDelta(t, want.TX, got.TX, 1e-6)
	assert.InDelta(t, want.TY, got.TY, 1e-6)
	assert.Less(t, rep.Normalization.Residual, 1e-6)
	assert.Equal(t, 5, rep.OriginalAxes)
	require.Len(t, rep.Diagnostics, 1)
	assert.Equal(t, types.DiagGridFit, rep.Diagnostics[0].Code)
	assert.Equal(t, types.SeverityInfo, rep.Diagnostics[0].Severity)
}

func TestNormalizePairsFamiliesBySmallestRotation(t *testing.T) {
	want := types.NormalizationTransform{Rotation: 0.05, ScaleX: 1, ScaleY: 1, TX: 100, TY: 200}
	original := gridDrawing([]float64{0, 6000, 12000}, []float64{0, 8000}, nil)
	// More horizontal axes make them the heavier family in the revision.
	revised := drawIn(t, want, gridDrawing([]float64{0, 6000, 12000}, []float64{0, 8000, 16000, 24000}, nil))

	got, rep := Normalize(original, revised, types.DefaultNormalizerConfig())

	require.Equal(t, types.MethodGridFit, rep.Normalization.Method)
	assert.Equal(t, 6, rep.Normalization.GridNodes)
	assert.InDelta(t, want.Rotation, got.Rotation, 1e-9)
	assert.InDelta(t, want.TX, got.TX, 1e-6)
	assert.InDelta(t, want.TY, got.TY, 1e-6)
}

func TestNormalizeLabelsResolveExtraAxis(t *testing.T) {
	original := gridDrawing([]float64{0, 6000, 12000}, []float64{0, 8000}, []string{"1", "2", "3"})
	// The revision adds axis 0 left of axis 1 and shifts the plan.
	shift := types.Translation(-500, 300)
	revised := drawIn(t, shift, gridDrawing(
		[]float64{-6000, 0, 6000, 12000}, []float64{0, 8000}, []string{"0", "1", "2", "3"}))

	got, rep := Normalize(original, revised, types.DefaultNormalizerConfig())

	require.Equal(t, types.MethodGridFit, rep.Normalization.Method)
	assert.InDelta(t, -500, got.TX, 1e-6)
	assert.InDelta(t, 300, got.TY, 1e-6)
	assert.InDelta(t, 0, got.Rotation, 1e-9)
}

func TestNormalizeFallbacks(t *testing.T) {
	walls := []types.GeometryEntity{
		{ID: "w1", Type: types.EntityLine, Layer: "A-WALL", Vertices: []orb.Point{{0, 0}, {10, 0}}},
		{ID: "w2", Type: types.EntityLine, Layer: "A-WALL", Vertices: []orb.Point{{10, 0}, {10, 4}}},
	}
	moved := geometry.TransformAll(types.Translation(3, 5), walls)

	tests := []struct {
		name       string
		original   []types.GeometryEntity
		revised    []types.GeometryEntity
		cfg        types.NormalizerConfig
		wantMethod types.NormalizationMethod
		wantCode   string
		wantT      types.NormalizationTransform
	}{
		{
			name:       "no grid uses bounding boxes",
			original:   walls,
			revised:    moved,
			cfg:        types.DefaultNormalizerConfig(),
			wantMethod: types.MethodBBoxFallback,
			wantCode:   types.DiagBBoxFallback,
			wantT:      types.Translation(-3, -5),
		},
		{
			name:     "identity fallback configured",
			original: walls,
			revised:  moved,
			cfg: func() types.NormalizerConfig {
				c := types.DefaultNormalizerConfig()
				c.Fallback = types.FallbackIdentity
				return c
			}(),
			wantMethod: types.MethodIdentityFallback,
			wantCode:   types.DiagIdentityFallback,
			wantT:      types.IdentityTransform(),
		},
		{
			name:       "empty revised",
			original:   walls,
			cfg:        types.DefaultNormalizerConfig(),
			wantMethod: types.MethodIdentityFallback,
			wantCode:   types.DiagIdentityFallback,
			wantT:      types.IdentityTransform(),
		},
		{
			name:       "single entity",
			original:   walls[:1],
			revised:    moved,
			cfg:        types.DefaultNormalizerConfig(),
			wantMethod: types.MethodIdentityFallback,
			wantCode:   types.DiagIdentityFallback,
			wantT:      types.IdentityTransform(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rep := Normalize(tt.original, tt.revised, tt.cfg)
			assert.Equal(t, tt.wantMethod, rep.Normalization.Method)
			assert.NotEmpty(t, rep.Normalization.Reason)
			assert.True(t, got.Invertible())
			assert.InDelta(t, tt.wantT.TX, got.TX, 1e-9)
			assert.InDelta(t, tt.wantT.TY, got.TY, 1e-9)
			assert.Equal(t, 1.0, got.ScaleX)
			assert.Equal(t, 0.0, got.Rotation)
			require.NotEmpty(t, rep.Diagnostics)
			assert.Equal(t, tt.wantCode, rep.Diagnostics[len(rep.Diagnostics)-1].Code)
		})
	}
}

func TestNormalizeRejectsPoorFits(t *testing.T) {
	tests := []struct {
		name    string
		revised []types.GeometryEntity
	}{
		{
			name:    "residual too large",
			revised: gridDrawing([]float64{0, 6000, 15000}, []float64{0, 8000}, nil),
		},
		{
			name: "scale out of range",
			revised: func() []types.GeometryEntity {
				return geometry.TransformAll(types.NormalizationTransform{ScaleX: 100, ScaleY: 100},
					gridDrawing([]float64{0, 6000, 12000}, []float64{0, 8000}, nil))
			}(),
		},
	}

	original := gridDrawing([]float64{0, 6000, 12000}, []float64{0, 8000}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rep := Normalize(original, tt.revised, types.DefaultNormalizerConfig())
			assert.Equal(t, types.MethodBBoxFallback, rep.Normalization.Method)
			require.Len(t, rep.Diagnostics, 2)
			assert.Equal(t, types.DiagGridRejected, rep.Diagnostics[0].Code)
			assert.Equal(t, types.SeverityWarning, rep.Diagnostics[0].Severity)
			assert.Contains(t, rep.Normalization.Reason, "rejected")
		})
	}
}

func TestApplyCopiesEntities(t *testing.T) {
	revised := []types.GeometryEntity{
		{ID: "c", Type: types.EntityCircle, Vertices: []orb.Point{{1, 1}}, Radius: 1},
	}
	out := Apply(types.Translation(2, 0), revised)

	require.Len(t, out, 1)
	assert.Equal(t, orb.Point{3, 1}, out[0].Vertices[0])
	assert.Equal(t, orb.Point{1, 1}, revised[0].Vertices[0])
}

func TestIsAxisLayer(t *testing.T) {
	patterns := types.DefaultNormalizerConfig().AxisLayers
	assert.True(t, isAxisLayer("S-GRID", patterns))
	assert.True(t, isAxisLayer("axis_main", patterns))
	assert.True(t, isAxisLayer("A-Dims", patterns))
	assert.False(t, isAxisLayer("A-WALL", patterns))
}

func TestBestShift(t *testing.T) {
	assert.Equal(t, 1, bestShift([]float64{0, 2, 3}, []float64{0, 10, 12, 13}))
	assert.Equal(t, 0, bestShift([]float64{0, 1}, []float64{0, 1, 2}))
}
