// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "math"

// NormalizationMethod records how the revised drawing was aligned.
type NormalizationMethod string

const (
	MethodGridFit          NormalizationMethod = "grid-fit"
	MethodBBoxFallback     NormalizationMethod = "bbox-fallback"
	MethodIdentityFallback NormalizationMethod = "identity-fallback"
)

// NormalizationTransform maps revised coordinates into the original frame:
// p' = R(Rotation) · diag(ScaleX, ScaleY) · p + (TX, TY).
type NormalizationTransform struct {
	Rotation float64 `json:"rotation" yaml:"rotation"`
	ScaleX   float64 `json:"scale_x" yaml:"scale_x"`
	ScaleY   float64 `json:"scale_y" yaml:"scale_y"`
	TX       float64 `json:"tx" yaml:"tx"`
	TY       float64 `json:"ty" yaml:"ty"`
}

// IdentityTransform returns the transform that leaves coordinates unchanged.
func IdentityTransform() NormalizationTransform {
	return NormalizationTransform{ScaleX: 1, ScaleY: 1}
}

// Translation returns a translation-only transform.
func Translation(tx, ty float64) NormalizationTransform {
	return NormalizationTransform{ScaleX: 1, ScaleY: 1, TX: tx, TY: ty}
}

// Invertible reports whether both scale factors are finite and non-zero.
func (t NormalizationTransform) Invertible() bool {
	const eps = 1e-12
	for _, s := range []float64{t.ScaleX, t.ScaleY} {
		if math.IsNaN(s) || math.IsInf(s, 0) || math.Abs(s) < eps {
			return false
		}
	}
	return true
}

// IsIdentity reports whether t moves no point by more than eps within a unit
// neighbourhood of the origin.
func (t NormalizationTransform) IsIdentity(eps float64) bool {
	return math.Abs(t.Rotation) <= eps &&
		math.Abs(t.ScaleX-1) <= eps && math.Abs(t.ScaleY-1) <= eps &&
		math.Abs(t.TX) <= eps && math.Abs(t.TY) <= eps
}

// Normalization summarizes the alignment step of a comparison.
type Normalization struct {
	Transform NormalizationTransform `json:"transform" yaml:"transform"`
	Method    NormalizationMethod    `json:"method" yaml:"method"`

	// Reason explains why a fallback was used. Empty for grid fits.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// GridNodes is the number of corresponding grid nodes the fit used.
	GridNodes int `json:"grid_nodes" yaml:"grid_nodes"`

	// Residual is the RMS distance between fitted node pairs.
	Residual float64 `json:"residual" yaml:"residual"`
}
