// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"math"
	"sort"
)

const (
	// DefaultSearchFactor scales PositionTolerance into the default absolute
	// search radius for match candidates.
	DefaultSearchFactor = 20.0

	// DefaultRelativeSearch is the default fraction of an entity's bounding
	// box diagonal that a candidate may drift and still be paired.
	DefaultRelativeSearch = 0.5
)

// ToleranceProfile is a named set of thresholds controlling how much drift
// still counts as unchanged. The engine never mutates a profile.
type ToleranceProfile struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// PositionTolerance is the drift in drawing units below which geometry
	// is considered unchanged. Also the bounding-box margin of the index.
	PositionTolerance float64 `json:"position_tolerance" yaml:"position_tolerance" mapstructure:"position_tolerance"`

	// AngleTolerance is the rotation drift in radians below which an entity
	// is considered unrotated.
	AngleTolerance float64 `json:"angle_tolerance" yaml:"angle_tolerance" mapstructure:"angle_tolerance"`

	// AttributeStrict makes color and text differences penalize candidate
	// scores and report color deltas.
	AttributeStrict bool `json:"attribute_strict" yaml:"attribute_strict" mapstructure:"attribute_strict"`

	// SearchRadius is the absolute distance score a pair may reach and still
	// be matched (as modified). Zero means DefaultSearchFactor × PositionTolerance.
	SearchRadius float64 `json:"search_radius,omitempty" yaml:"search_radius,omitempty" mapstructure:"search_radius"`

	// RelativeSearch widens the search radius for large entities to this
	// fraction of the original entity's bounding-box diagonal. Zero means
	// DefaultRelativeSearch.
	RelativeSearch float64 `json:"relative_search,omitempty" yaml:"relative_search,omitempty" mapstructure:"relative_search"`
}

// Validate returns a *ToleranceError when any threshold is non-positive or
// not finite.
func (p ToleranceProfile) Validate() error {
	positive := []struct {
		field string
		value float64
	}{
		{"position_tolerance", p.PositionTolerance},
		{"angle_tolerance", p.AngleTolerance},
	}
	for _, f := range positive {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ToleranceError{Profile: p.Name, Field: f.field, Value: f.value, Reason: "must be finite"}
		}
		if f.value <= 0 {
			return &ToleranceError{Profile: p.Name, Field: f.field, Value: f.value, Reason: "must be positive"}
		}
	}

	optional := []struct {
		field string
		value float64
	}{
		{"search_radius", p.SearchRadius},
		{"relative_search", p.RelativeSearch},
	}
	for _, f := range optional {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return &ToleranceError{Profile: p.Name, Field: f.field, Value: f.value, Reason: "must be finite and non-negative"}
		}
	}
	return nil
}

// WithDefaults returns a copy with zero optional fields filled in.
func (p ToleranceProfile) WithDefaults() ToleranceProfile {
	if p.SearchRadius == 0 {
		p.SearchRadius = DefaultSearchFactor * p.PositionTolerance
	}
	if p.RelativeSearch == 0 {
		p.RelativeSearch = DefaultRelativeSearch
	}
	return p
}

// Built-in profiles assume drawings in millimetres.
var builtinProfiles = map[string]ToleranceProfile{
	"fine": {
		Name:              "fine",
		PositionTolerance: 0.1,
		AngleTolerance:    0.1 * math.Pi / 180,
		AttributeStrict:   true,
	},
	"default": {
		Name:              "default",
		PositionTolerance: 1.0,
		AngleTolerance:    0.5 * math.Pi / 180,
	},
	"coarse": {
		Name:              "coarse",
		PositionTolerance: 10.0,
		AngleTolerance:    2 * math.Pi / 180,
	},
}

// BuiltinProfile returns the named built-in profile.
func BuiltinProfile(name string) (ToleranceProfile, bool) {
	p, ok := builtinProfiles[name]
	return p, ok
}

// BuiltinProfileNames lists the built-in profile names in sorted order.
func BuiltinProfileNames() []string {
	names := make([]string, 0, len(builtinProfiles))
	for name := range builtinProfiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
