// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/floorplan-diff/pkg/types"
)

func configFrom(t *testing.T, doc string) (types.AppConfig, error) {
	t.Helper()
	v := viper.New()
	setDefaults(v, types.DefaultAppConfig())
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(doc)))
	return decodeConfig(v)
}

func TestDecodeConfig(t *testing.T) {
	cfg, err := configFrom(t, `
normalizer:
  axis_layers: ["S-GRID"]
  fallback: identity
matcher:
  workers: 4
store:
  dir: /var/lib/floorplan-diff
default_profile: site
profiles:
  site:
    position_tolerance: 5
    angle_tolerance: 0.02
    attribute_strict: true
`)
	require.NoError(t, err)

	assert.Equal(t, []string{"S-GRID"}, cfg.Normalizer.AxisLayers)
	assert.Equal(t, types.FallbackIdentity, cfg.Normalizer.Fallback)
	assert.Equal(t, 1.0, cfg.Normalizer.AngleBinDegrees)
	assert.Equal(t, 4, cfg.Matcher.Workers)
	assert.Equal(t, 32, cfg.Matcher.ArcSegments)
	assert.Equal(t, "/var/lib/floorplan-diff", cfg.Store.Dir)
	assert.Equal(t, ":8080", cfg.Server.Addr)

	p, err := cfg.ResolveProfile("")
	require.NoError(t, err)
	assert.Equal(t, "site", p.Name)
	assert.Equal(t, 5.0, p.PositionTolerance)
	assert.True(t, p.AttributeStrict)
}

func TestDecodeConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"bad fallback", "normalizer:\n  fallback: centroid\n", "normalizer.fallback"},
		{"bad profile", "profiles:\n  loose:\n    position_tolerance: 0\n    angle_tolerance: 1\n", "position_tolerance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := configFrom(t, tt.doc)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfigureLogger(t *testing.T) {
	l := logrus.New()
	require.NoError(t, configureLogger(l, types.LogConfig{Level: "debug", Format: "json"}))
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)

	assert.Error(t, configureLogger(l, types.LogConfig{Level: "loud"}))
	assert.Error(t, configureLogger(l, types.LogConfig{Format: "xml"}))
}

func TestParseOutputFormat(t *testing.T) {
	f, err := parseOutputFormat("")
	require.NoError(t, err)
	assert.Equal(t, outputTable, f)

	f, err = parseOutputFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, outputYAML, f)

	_, err = parseOutputFormat("csv")
	assert.Error(t, err)
}

func TestWriteResultTable(t *testing.T) {
	res := &types.DiffResult{
		Summary: types.DiffSummary{Added: 1, Modified: 1, TotalOriginal: 1, TotalRevised: 2},
		Records: []types.DiffRecord{
			{EntityID: "c9", EntityType: types.EntityCircle, Layer: "S-COLS", ChangeType: types.ChangeAdded, Label: "circle@S-COLS"},
			{
				EntityID: "w1", EntityType: types.EntityLine, Layer: "A-WALL", ChangeType: types.ChangeModified,
				AttributeDeltas: map[string]types.AttributeDelta{types.AttrShape: {}, types.AttrPosition: {}},
			},
		},
		Normalization: types.Normalization{Transform: types.IdentityTransform(), Method: types.MethodIdentityFallback, Reason: "original collection has fewer than 2 entities"},
		Profile:       types.ToleranceProfile{Name: "default", PositionTolerance: 1, AngleTolerance: 0.01},
		Diagnostics: []types.Diagnostic{
			{Severity: types.SeverityWarning, Code: types.DiagIdentityFallback, Message: "aligned by identity"},
		},
	}

	var buf bytes.Buffer
	writeResultTable(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "normalization: identity-fallback")
	assert.Contains(t, out, "reason: original collection has fewer than 2 entities")
	assert.Contains(t, out, "position,shape")
	assert.Contains(t, out, "added: 1, removed: 0, modified: 1, unchanged: 0")
	assert.Contains(t, out, "1 diagnostics:")
}

func TestCompareCommand(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "a.json")
	revised := filepath.Join(dir, "b.yaml")
	out := filepath.Join(dir, "result.json")

	require.NoError(t, os.WriteFile(original, []byte(`[
		{"entity_id": "w1", "entity_type": "LINE", "layer": "A-WALL", "vertices": [[0, 0], [1000, 0]]}
	]`), 0o644))
	require.NoError(t, os.WriteFile(revised, []byte(`entities:
  - entity_id: w1
    entity_type: line
    layer: A-WALL
    vertices: [[0, 4], [1000, 4]]
  - entity_id: t1
    entity_type: MTEXT
    layer: A-ANNO
    vertices: [[10, 10]]
    text_content: LOBBY
`), 0o644))

	rootCmd.SetArgs([]string{
		"compare", original, revised,
		"--env-file", "", "--config", filepath.Join(dir, "missing.yaml"),
		"--format", "json", "-o", out, "--workers", "1",
	})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var res types.DiffResult
	require.NoError(t, json.Unmarshal(data, &res))

	assert.Equal(t, types.DiffSummary{Added: 1, Modified: 1, TotalOriginal: 1, TotalRevised: 2}, res.Summary)
	assert.Equal(t, "default", res.Profile.Name)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "t1", res.Records[0].EntityID)
	assert.Equal(t, types.EntityText, res.Records[0].EntityType)
	assert.Equal(t, "w1", res.Records[1].EntityID)
}
