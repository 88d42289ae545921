// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize brings a revised drawing into the coordinate frame of
// the original. It fits a similarity transform to the reference grid both
// drawings share and falls back to bounding-box or identity alignment when
// no acceptable grid fit exists. Normalization never fails: it always
// returns a usable transform together with diagnostics describing how it
// was obtained.
package normalize

import (
	"fmt"

	"github.com/pdiddy/floorplan-diff/internal/geometry"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// Report describes how a transform was obtained.
type Report struct {
	Normalization types.Normalization
	Diagnostics   []types.Diagnostic

	// OriginalAxes and RevisedAxes count the axis lines found on reference
	// layers in each collection.
	OriginalAxes int
	RevisedAxes  int
}

// Normalize computes the transform mapping revised into the frame of
// original. Neither slice is modified.
func Normalize(original, revised []types.GeometryEntity, cfg types.NormalizerConfig) (types.NormalizationTransform, Report) {
	cfg = withDefaults(cfg)

	if reason := tooFewEntities(original, revised); reason != "" {
		return identity(reason, types.SeverityInfo)
	}

	origGrid := detectGrid(original, cfg)
	revGrid := detectGrid(revised, cfg)

	var rep Report
	rep.OriginalAxes = origGrid.axisCount()
	rep.RevisedAxes = revGrid.axisCount()

	t, norm, reason, rejected := fitGrids(origGrid, revGrid, cfg)
	if reason == "" {
		rep.Normalization = norm
		rep.Diagnostics = append(rep.Diagnostics, types.Diagnostic{
			Severity: types.SeverityInfo,
			Code:     types.DiagGridFit,
			Message: fmt.Sprintf("grid fit from %d nodes: rotation %.6f rad, scale %.6f, rms residual %.6g",
				norm.GridNodes, t.Rotation, t.ScaleX, norm.Residual),
		})
		return t, rep
	}
	if rejected {
		rep.Diagnostics = append(rep.Diagnostics, types.Diagnostic{
			Severity: types.SeverityWarning,
			Code:     types.DiagGridRejected,
			Message:  reason,
		})
	}

	var fb Report
	if cfg.Fallback == types.FallbackIdentity {
		t, fb = identity(reason, types.SeverityWarning)
	} else {
		t, fb = boundingBox(original, revised, reason)
	}
	rep.Normalization = fb.Normalization
	rep.Diagnostics = append(rep.Diagnostics, fb.Diagnostics...)
	return t, rep
}

// Apply returns copies of entities mapped through t.
func Apply(t types.NormalizationTransform, entities []types.GeometryEntity) []types.GeometryEntity {
	return geometry.TransformAll(t, entities)
}

func tooFewEntities(original, revised []types.GeometryEntity) string {
	switch {
	case len(original) == 0 && len(revised) == 0:
		return "both collections are empty"
	case len(original) == 0:
		return "original collection is empty"
	case len(revised) == 0:
		return "revised collection is empty"
	case len(original) < 2:
		return "original collection has fewer than 2 entities"
	case len(revised) < 2:
		return "revised collection has fewer than 2 entities"
	}
	return ""
}

func identity(reason string, sev types.Severity) (types.NormalizationTransform, Report) {
	t := types.IdentityTransform()
	return t, Report{
		Normalization: types.Normalization{
			Transform: t,
			Method:    types.MethodIdentityFallback,
			Reason:    reason,
		},
		Diagnostics: []types.Diagnostic{{
			Severity: sev,
			Code:     types.DiagIdentityFallback,
			Message:  "identity transform used: " + reason,
		}},
	}
}

// boundingBox aligns the centers of both collections' bounding boxes.
func boundingBox(original, revised []types.GeometryEntity, reason string) (types.NormalizationTransform, Report) {
	ob, okOrig := geometry.Bounds(original)
	rb, okRev := geometry.Bounds(revised)
	if !okOrig || !okRev {
		return identity(reason+"; no vertices to align", types.SeverityWarning)
	}
	oc, rc := ob.Center(), rb.Center()
	t := types.Translation(oc[0]-rc[0], oc[1]-rc[1])
	return t, Report{
		Normalization: types.Normalization{
			Transform: t,
			Method:    types.MethodBBoxFallback,
			Reason:    reason,
		},
		Diagnostics: []types.Diagnostic{{
			Severity: types.SeverityWarning,
			Code:     types.DiagBBoxFallback,
			Message:  fmt.Sprintf("bounding-box alignment used (translation %.6g, %.6g): %s", t.TX, t.TY, reason),
		}},
	}
}

func withDefaults(cfg types.NormalizerConfig) types.NormalizerConfig {
	def := types.DefaultNormalizerConfig()
	if len(cfg.AxisLayers) == 0 {
		cfg.AxisLayers = def.AxisLayers
	}
	if cfg.AngleBinDegrees <= 0 {
		cfg.AngleBinDegrees = def.AngleBinDegrees
	}
	if cfg.LabelDistance < 0 {
		cfg.LabelDistance = 0
	}
	if cfg.MaxResidual <= 0 {
		cfg.MaxResidual = def.MaxResidual
	}
	if cfg.MaxScale <= 1 {
		cfg.MaxScale = def.MaxScale
	}
	if cfg.Fallback == "" {
		cfg.Fallback = def.Fallback
	}
	return cfg
}
