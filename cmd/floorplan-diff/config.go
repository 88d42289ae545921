// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// setDefaults registers every scalar setting so that FLOORPLAN_* variables
// override them even without a config file.
func setDefaults(v *viper.Viper, d types.AppConfig) {
	v.SetDefault("normalizer.axis_layers", d.Normalizer.AxisLayers)
	v.SetDefault("normalizer.min_axis_length", d.Normalizer.MinAxisLength)
	v.SetDefault("normalizer.angle_bin_degrees", d.Normalizer.AngleBinDegrees)
	v.SetDefault("normalizer.label_distance", d.Normalizer.LabelDistance)
	v.SetDefault("normalizer.max_residual", d.Normalizer.MaxResidual)
	v.SetDefault("normalizer.max_scale", d.Normalizer.MaxScale)
	v.SetDefault("normalizer.fallback", string(d.Normalizer.Fallback))

	v.SetDefault("matcher.workers", d.Matcher.Workers)
	v.SetDefault("matcher.centroid_weight", d.Matcher.CentroidWeight)
	v.SetDefault("matcher.vertex_weight", d.Matcher.VertexWeight)
	v.SetDefault("matcher.arc_segments", d.Matcher.ArcSegments)
	v.SetDefault("matcher.self_intersection_limit", d.Matcher.SelfIntersectionLimit)

	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.max_results", d.Store.MaxResults)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("default_profile", d.DefaultProfile)
}

// loadConfig decodes the merged viper settings into an AppConfig.
func loadConfig() (types.AppConfig, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (types.AppConfig, error) {
	cfg := types.DefaultAppConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return types.AppConfig{}, fmt.Errorf("decoding configuration: %w", err)
	}
	switch cfg.Normalizer.Fallback {
	case types.FallbackBBox, types.FallbackIdentity:
	default:
		return types.AppConfig{}, fmt.Errorf("normalizer.fallback must be %q or %q, got %q",
			types.FallbackBBox, types.FallbackIdentity, cfg.Normalizer.Fallback)
	}
	for name, p := range cfg.Profiles {
		if p.Name == "" {
			p.Name = name
		}
		if err := p.Validate(); err != nil {
			return types.AppConfig{}, fmt.Errorf("configured profiles: %w", err)
		}
		cfg.Profiles[name] = p
	}
	return cfg, nil
}

// configureLogger applies level and format to l, which writes to stderr.
func configureLogger(l *logrus.Logger, cfg types.LogConfig) error {
	l.SetOutput(os.Stderr)

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	l.SetLevel(lvl)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Format)
	}
	return nil
}
