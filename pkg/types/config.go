// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"sort"
)

// FallbackMode selects what the normalizer does when no grid fit is found.
type FallbackMode string

const (
	FallbackBBox     FallbackMode = "bbox"
	FallbackIdentity FallbackMode = "identity"
)

// NormalizerConfig holds settings for grid detection and alignment.
type NormalizerConfig struct {
	// AxisLayers are case-insensitive path.Match patterns naming the layers
	// that carry reference axes (e.g. "*AXIS*", "S-GRID").
	AxisLayers []string `json:"axis_layers" yaml:"axis_layers" mapstructure:"axis_layers"`

	// MinAxisLength drops axis lines shorter than this many drawing units.
	MinAxisLength float64 `json:"min_axis_length" yaml:"min_axis_length" mapstructure:"min_axis_length"`

	// AngleBinDegrees is the histogram bin width used to find the dominant
	// axis directions, and the tolerance for assigning lines to a family.
	AngleBinDegrees float64 `json:"angle_bin_degrees" yaml:"angle_bin_degrees" mapstructure:"angle_bin_degrees"`

	// LabelDistance is how far an axis label may sit from the end of its line.
	LabelDistance float64 `json:"label_distance" yaml:"label_distance" mapstructure:"label_distance"`

	// MaxResidual is the largest RMS node residual (drawing units) a grid
	// fit may have before it is rejected.
	MaxResidual float64 `json:"max_residual" yaml:"max_residual" mapstructure:"max_residual"`

	// MaxScale bounds the fitted scale to [1/MaxScale, MaxScale].
	MaxScale float64 `json:"max_scale" yaml:"max_scale" mapstructure:"max_scale"`

	// Fallback selects bounding-box or identity alignment when no grid fit
	// is accepted.
	Fallback FallbackMode `json:"fallback" yaml:"fallback" mapstructure:"fallback"`
}

// MatcherConfig holds settings for candidate scoring and assignment.
type MatcherConfig struct {
	// Workers bounds the number of buckets matched concurrently. Zero uses
	// the number of CPUs.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// CentroidWeight and VertexWeight weight the two geometric terms of the
	// distance score.
	CentroidWeight float64 `json:"centroid_weight" yaml:"centroid_weight" mapstructure:"centroid_weight"`
	VertexWeight   float64 `json:"vertex_weight" yaml:"vertex_weight" mapstructure:"vertex_weight"`

	// ArcSegments is the number of samples used for a full circle.
	ArcSegments int `json:"arc_segments" yaml:"arc_segments" mapstructure:"arc_segments"`

	// SelfIntersectionLimit skips the self-intersection check for
	// polylines with more vertices than this.
	SelfIntersectionLimit int `json:"self_intersection_limit" yaml:"self_intersection_limit" mapstructure:"self_intersection_limit"`
}

// StoreConfig holds settings for the diff result store.
type StoreConfig struct {
	// Dir is the base directory for the database and exports.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default page size of list and record queries.
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// LogConfig selects the log level and format (text or json).
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// AppConfig groups all settings of the floorplan-diff tool.
type AppConfig struct {
	Normalizer     NormalizerConfig            `json:"normalizer" yaml:"normalizer" mapstructure:"normalizer"`
	Matcher        MatcherConfig               `json:"matcher" yaml:"matcher" mapstructure:"matcher"`
	Store          StoreConfig                 `json:"store" yaml:"store" mapstructure:"store"`
	Server         ServerConfig                `json:"server" yaml:"server" mapstructure:"server"`
	Log            LogConfig                   `json:"log" yaml:"log" mapstructure:"log"`
	DefaultProfile string                      `json:"default_profile" yaml:"default_profile" mapstructure:"default_profile"`
	Profiles       map[string]ToleranceProfile `json:"profiles" yaml:"profiles" mapstructure:"profiles"`
}

// DefaultNormalizerConfig returns the normalizer defaults.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		AxisLayers:      []string{"*AXIS*", "*GRID*", "*DIM*"},
		MinAxisLength:   0,
		AngleBinDegrees: 1,
		LabelDistance:   1000,
		MaxResidual:     1.0,
		MaxScale:        10,
		Fallback:        FallbackBBox,
	}
}

// DefaultMatcherConfig returns the matcher defaults.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		CentroidWeight:        0.5,
		VertexWeight:          0.5,
		ArcSegments:           32,
		SelfIntersectionLimit: 512,
	}
}

// DefaultAppConfig returns the configuration used when no file overrides it.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Normalizer:     DefaultNormalizerConfig(),
		Matcher:        DefaultMatcherConfig(),
		Store:          StoreConfig{Dir: "storage", MaxResults: 50},
		Server:         ServerConfig{Addr: ":8080", MaxBodyBytes: 64 << 20},
		Log:            LogConfig{Level: "info", Format: "text"},
		DefaultProfile: "default",
	}
}

// ResolveProfile looks up a profile by name, preferring configured profiles
// over built-ins. An empty name resolves DefaultProfile.
func (c AppConfig) ResolveProfile(name string) (ToleranceProfile, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	if name == "" {
		name = "default"
	}
	if p, ok := c.Profiles[name]; ok {
		if p.Name == "" {
			p.Name = name
		}
		return p, nil
	}
	if p, ok := BuiltinProfile(name); ok {
		return p, nil
	}
	return ToleranceProfile{}, fmt.Errorf("unknown tolerance profile %q (available: %v)", name, c.ProfileNames())
}

// ProfileNames lists configured and built-in profile names, sorted.
func (c AppConfig) ProfileNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, n := range BuiltinProfileNames() {
		seen[n] = true
		names = append(names, n)
	}
	for n := range c.Profiles {
		if !seen[n] {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}
