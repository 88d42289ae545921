// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine exposes the two entry points of the comparison core:
// Normalize, which aligns a revised drawing to its original, and Match,
// which runs validation, normalization, indexing, matching, and result
// assembly for one comparison job. Both are pure functions of their
// arguments; nothing is shared between calls.
package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/floorplan-diff/internal/geometry"
	"github.com/pdiddy/floorplan-diff/internal/match"
	"github.com/pdiddy/floorplan-diff/internal/normalize"
	"github.com/pdiddy/floorplan-diff/internal/result"
	"github.com/pdiddy/floorplan-diff/internal/spatial"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// Options configures a comparison job.
type Options struct {
	Normalizer types.NormalizerConfig
	Matcher    types.MatcherConfig

	// IncludeUnchanged adds records for unchanged entities.
	IncludeUnchanged bool

	// Logger receives stage logs. Nil discards them.
	Logger logrus.FieldLogger
}

// DefaultOptions returns options with default normalizer and matcher
// settings.
func DefaultOptions() Options {
	return Options{
		Normalizer: types.DefaultNormalizerConfig(),
		Matcher:    types.DefaultMatcherConfig(),
	}
}

// OptionsFromConfig builds job options from application configuration.
func OptionsFromConfig(cfg types.AppConfig, logger logrus.FieldLogger) Options {
	return Options{
		Normalizer: cfg.Normalizer,
		Matcher:    cfg.Matcher,
		Logger:     logger,
	}
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Normalize validates both collections and computes the transform mapping
// revised into the original's frame. Invalid entities are left out and
// reported in the report's diagnostics.
func Normalize(original, revised []types.GeometryEntity, cfg types.NormalizerConfig) (types.NormalizationTransform, normalize.Report) {
	orig, origDiags := Prepare(original, types.SourceOriginal)
	rev, revDiags := Prepare(revised, types.SourceRevised)

	t, rep := normalize.Normalize(orig, rev, cfg)
	diags := append(origDiags, revDiags...)
	rep.Diagnostics = append(diags, rep.Diagnostics...)
	types.SortDiagnostics(rep.Diagnostics)
	return t, rep
}

// Match compares original and revised under profile. An invalid profile
// is the only error besides cancellation; it wraps a *types.ToleranceError.
// Problems with individual entities are reported as diagnostics.
func Match(ctx context.Context, original, revised []types.GeometryEntity, profile types.ToleranceProfile, opts Options) (*types.DiffResult, error) {
	log := opts.logger()
	start := time.Now()

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("validating tolerance profile: %w", err)
	}
	profile = profile.WithDefaults()

	origEntries, origDiags := prepareEntries(original, types.SourceOriginal)
	revEntries, revDiags := prepareEntries(revised, types.SourceRevised)
	orig, rev := entitiesOf(origEntries), entitiesOf(revEntries)
	diags := append(origDiags, revDiags...)
	log.WithFields(logrus.Fields{
		"stage":    "validate",
		"original": len(orig),
		"revised":  len(rev),
		"rejected": len(original) + len(revised) - len(orig) - len(rev),
	}).Debug("inputs validated")

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("normalizing: %w", err)
	}
	t, rep := normalize.Normalize(orig, rev, opts.Normalizer)
	diags = append(diags, rep.Diagnostics...)
	log.WithFields(logrus.Fields{
		"stage":      "normalize",
		"method":     rep.Normalization.Method,
		"grid_nodes": rep.Normalization.GridNodes,
		"rotation":   t.Rotation,
		"scale":      t.ScaleX,
		"tx":         t.TX,
		"ty":         t.TY,
	}).Info("revised drawing normalized")

	sampler := geometry.NewSampler(opts.Matcher)
	for i, e := range normalize.Apply(t, rev) {
		revEntries[i].Entity = e
	}
	origCat := spatial.BuildCatalogEntries(origEntries, profile.PositionTolerance, sampler)
	revCat := spatial.BuildCatalogEntries(revEntries, profile.PositionTolerance, sampler)
	log.WithFields(logrus.Fields{
		"stage":   "index",
		"buckets": len(spatial.UnionKeys(origCat, revCat)),
	}).Debug("spatial indexes built")

	m, err := match.Match(ctx, origCat, revCat, profile, opts.Matcher)
	if err != nil {
		return nil, fmt.Errorf("matching entities: %w", err)
	}

	res := result.Build(m, origCat, revCat, result.Options{
		IncludeUnchanged: opts.IncludeUnchanged,
		Normalization:    rep.Normalization,
		Profile:          profile,
		Diagnostics:      diags,
	})
	log.WithFields(logrus.Fields{
		"stage":       "match",
		"profile":     profile.Name,
		"candidates":  m.Candidates,
		"added":       res.Summary.Added,
		"removed":     res.Summary.Removed,
		"modified":    res.Summary.Modified,
		"unchanged":   res.Summary.Unchanged,
		"diagnostics": len(res.Diagnostics),
		"elapsed":     time.Since(start).String(),
	}).Info("comparison complete")
	return &res, nil
}

// Prepare tags entities with src and drops the ones that cannot take part
// in a comparison: invalid entities and repeated ids (the first occurrence
// wins). Every dropped or retagged entity yields a diagnostic. The input
// slice is not modified.
func Prepare(entities []types.GeometryEntity, src types.Source) ([]types.GeometryEntity, []types.Diagnostic) {
	entries, diags := prepareEntries(entities, src)
	return entitiesOf(entries), diags
}

// prepareEntries is Prepare keeping each surviving entity's position in
// the input collection.
func prepareEntries(entities []types.GeometryEntity, src types.Source) ([]spatial.Entry, []types.Diagnostic) {
	var (
		out   = make([]spatial.Entry, 0, len(entities))
		diags []types.Diagnostic
		seen  = make(map[string]bool, len(entities))
	)
	for i, e := range entities {
		if e.Source != "" && e.Source != src {
			diags = append(diags, types.Diagnostic{
				Severity: types.SeverityWarning,
				Code:     types.DiagSourceMismatch,
				EntityID: e.ID,
				Source:   src,
				Message:  fmt.Sprintf("entity tagged %q supplied as %q; treated as %s", e.Source, src, src),
			})
		}
		e.Source = src

		if err := e.Validate(); err != nil {
			diags = append(diags, types.Diagnostic{
				Severity: types.SeverityError,
				Code:     types.DiagInputError,
				EntityID: e.ID,
				Source:   src,
				Message:  err.Error(),
			})
			continue
		}
		if seen[e.ID] {
			diags = append(diags, types.Diagnostic{
				Severity: types.SeverityError,
				Code:     types.DiagDuplicateID,
				EntityID: e.ID,
				Source:   src,
				Message:  fmt.Sprintf("duplicate entity id %q; only the first occurrence is compared", e.ID),
			})
			continue
		}
		seen[e.ID] = true
		out = append(out, spatial.Entry{Entity: e, Ordinal: i})
	}
	return out, diags
}

func entitiesOf(entries []spatial.Entry) []types.GeometryEntity {
	out := make([]types.GeometryEntity, len(entries))
	for i, en := range entries {
		out[i] = en.Entity
	}
	return out
}
