// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package result

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/floorplan-diff/internal/geometry"
	"github.com/pdiddy/floorplan-diff/internal/match"
	"github.com/pdiddy/floorplan-diff/internal/spatial"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

func line(id, layer string, x0, y0, x1, y1 float64) types.GeometryEntity {
	return types.GeometryEntity{
		ID: id, Type: types.EntityLine, Layer: layer,
		Vertices: []orb.Point{{x0, y0}, {x1, y1}},
	}
}

type fixture struct {
	m        *match.Result
	orig     *spatial.Catalog
	rev      *spatial.Catalog
	profile  types.ToleranceProfile
	original []types.GeometryEntity
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	profile := types.ToleranceProfile{Name: "test", PositionTolerance: 0.05, AngleTolerance: 0.01}
	original := []types.GeometryEntity{
		line("w3", "WALL", 0, 0, 10, 0),
		line("w1", "WALL", 0, 5, 10, 5),
		line("w2", "WALL", 0, 50, 10, 50),
		line("w9", "WALL", 0, 100, 10, 100),
		line("w0", "WALL", 0, 200, 10, 200),
		line("g1", "GONE", 0, 0, 1, 1),
	}
	revised := []types.GeometryEntity{
		line("r-w3", "WALL", 0, 0, 10, 0),
		line("r-w1", "WALL", 0, 6, 10, 6),
		line("r-w9", "WALL", 0, 100, 10, 100),
		line("r-w0", "WALL", 1, 200, 11, 200),
		line("new-b", "NEW", 0, 0, 1, 0),
		line("new-a", "NEW", 5, 0, 6, 0),
	}
	cfg := types.DefaultMatcherConfig()
	s := geometry.NewSampler(cfg)
	orig := spatial.BuildCatalog(original, profile.PositionTolerance, s)
	rev := spatial.BuildCatalog(revised, profile.PositionTolerance, s)
	m, err := match.Match(context.Background(), orig, rev, profile, cfg)
	require.NoError(t, err)
	return fixture{m: m, orig: orig, rev: rev, profile: profile, original: original}
}

func recordKeys(recs []types.DiffRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = string(r.ChangeType) + ":" + r.EntityID
	}
	return out
}

func TestBuildOrdersRecords(t *testing.T) {
	f := newFixture(t)

	res := Build(f.m, f.orig, f.rev, Options{Profile: f.profile})

	assert.Equal(t, types.DiffSummary{
		Added: 2, Removed: 2, Modified: 2, Unchanged: 2,
		TotalOriginal: 6, TotalRevised: 6,
	}, res.Summary)
	assert.Equal(t, []string{
		"removed:g1", "removed:w2",
		"added:new-a", "added:new-b",
		"modified:w0", "modified:w1",
	}, recordKeys(res.Records))
	assert.Equal(t, f.profile, res.Profile)
}

func TestBuildIncludeUnchanged(t *testing.T) {
	f := newFixture(t)

	res := Build(f.m, f.orig, f.rev, Options{IncludeUnchanged: true})

	require.Len(t, res.Records, 8)
	assert.Equal(t, []string{"unchanged:w3", "unchanged:w9"}, recordKeys(res.Records[6:]))
	assert.Equal(t, 2, res.Summary.Unchanged)
}

func TestBuildRecordContents(t *testing.T) {
	f := newFixture(t)
	res := Build(f.m, f.orig, f.rev, Options{})

	byKey := map[string]types.DiffRecord{}
	for _, r := range res.Records {
		byKey[string(r.ChangeType)+":"+r.EntityID] = r
	}

	removed := byKey["removed:w2"]
	require.NotNil(t, removed.OriginalRef)
	assert.Nil(t, removed.RevisedRef)
	assert.Equal(t, 2, removed.OriginalRef.Index)
	assert.Equal(t, types.SourceOriginal, removed.OriginalRef.Source)
	assert.Equal(t, []orb.Point{{0, 50}, {10, 50}}, removed.Geometry)
	assert.Equal(t, "line@WALL", removed.Label)

	added := byKey["added:new-a"]
	require.NotNil(t, added.RevisedRef)
	assert.Nil(t, added.OriginalRef)
	assert.Equal(t, 5, added.RevisedRef.Index)

	moved := byKey["modified:w1"]
	require.NotNil(t, moved.OriginalRef)
	require.NotNil(t, moved.RevisedRef)
	assert.Equal(t, "r-w1", moved.RevisedRef.EntityID)
	assert.Equal(t, []orb.Point{{0, 6}, {10, 6}}, moved.Geometry)
	assert.Equal(t, []orb.Point{{0, 5}, {10, 5}}, moved.PreviousGeometry)
	assert.Contains(t, moved.AttributeDeltas, types.AttrPosition)
	assert.Greater(t, moved.Score, 0.0)
}

func TestBuildSortsDiagnostics(t *testing.T) {
	f := newFixture(t)
	res := Build(f.m, f.orig, f.rev, Options{Diagnostics: []types.Diagnostic{
		{Code: types.DiagInputError, EntityID: "z", Source: types.SourceRevised},
		{Code: types.DiagInputError, EntityID: "a", Source: types.SourceRevised},
		{Code: types.DiagBBoxFallback},
	}})

	require.Len(t, res.Diagnostics, 3)
	assert.Equal(t, types.DiagBBoxFallback, res.Diagnostics[0].Code)
	assert.Equal(t, "a", res.Diagnostics[1].EntityID)
	assert.Equal(t, "z", res.Diagnostics[2].EntityID)
}

func TestBuildNilMatch(t *testing.T) {
	res := Build(nil, nil, nil, Options{})
	assert.Empty(t, res.Records)
	assert.NotNil(t, res.Records)
	assert.Zero(t, res.Summary)
}
