// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match pairs entities of two normalized drawings and classifies
// each pair. Entities only ever match within their (type, layer) bucket.
// Within a bucket, candidates are ranked by distance score and claimed
// greedily, so the outcome depends only on the inputs and never on the
// order of goroutines or of the input collections.
package match

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/floorplan-diff/internal/spatial"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// Result is the correspondence between two catalogs.
type Result struct {
	// Pairs holds matched entities, in bucket order and, within a bucket,
	// in the order they were claimed.
	Pairs []Pair

	UnmatchedOriginal []*spatial.Item
	UnmatchedRevised  []*spatial.Item

	Diagnostics []types.Diagnostic

	// Buckets and Candidates count the buckets visited and the candidate
	// pairs within tolerance.
	Buckets    int
	Candidates int
}

// Match pairs the entities of original and revised. revised must already
// be in the original's frame. The profile is validated and its optional
// fields defaulted; an invalid profile returns a *types.ToleranceError.
// ctx is checked between buckets.
func Match(ctx context.Context, original, revised *spatial.Catalog, profile types.ToleranceProfile, cfg types.MatcherConfig) (*Result, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	profile = profile.WithDefaults()
	sc := newScorer(profile, cfg)

	keys := spatial.UnionKeys(original, revised)
	slots := make([]Result, len(keys))

	run := func(i int) {
		k := keys[i]
		var o, r *spatial.Index
		if original != nil {
			o, _ = original.Bucket(k)
		}
		if revised != nil {
			r, _ = revised.Bucket(k)
		}
		slots[i] = matchBucket(o, r, sc)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if workers == 1 || len(keys) < 2 {
		for i := range keys {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("matching bucket %s: %w", keys[i], err)
			}
			run(i)
		}
	} else {
		sem := semaphore.NewWeighted(int64(workers))
		group, groupCtx := errgroup.WithContext(ctx)
		for i := range keys {
			group.Go(func() error {
				if err := sem.Acquire(groupCtx, 1); err != nil {
					return fmt.Errorf("acquire worker: %w", err)
				}
				defer sem.Release(1)
				if err := groupCtx.Err(); err != nil {
					return fmt.Errorf("matching bucket %s: %w", keys[i], err)
				}
				run(i)
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, fmt.Errorf("match buckets: %w", err)
		}
	}

	res := &Result{Buckets: len(keys)}
	for _, s := range slots {
		res.Pairs = append(res.Pairs, s.Pairs...)
		res.UnmatchedOriginal = append(res.UnmatchedOriginal, s.UnmatchedOriginal...)
		res.UnmatchedRevised = append(res.UnmatchedRevised, s.UnmatchedRevised...)
		res.Diagnostics = append(res.Diagnostics, s.Diagnostics...)
		res.Candidates += s.Candidates
	}
	return res, nil
}

// matchBucket matches one (type, layer) bucket. Either index may be nil
// when the bucket exists on one side only.
func matchBucket(orig, rev *spatial.Index, sc scorer) Result {
	var res Result
	for _, ix := range []*spatial.Index{orig, rev} {
		if ix == nil {
			continue
		}
		for _, it := range ix.Items() {
			if it.Shape.Degenerate != "" {
				res.Diagnostics = append(res.Diagnostics, degenerateDiagnostic(it))
			}
		}
	}

	if orig == nil || rev == nil {
		if orig != nil {
			res.UnmatchedOriginal = orig.Items()
		}
		if rev != nil {
			res.UnmatchedRevised = rev.Items()
		}
		return res
	}

	cands := sc.candidates(orig, rev)
	res.Candidates = len(cands)

	claimedOrig := make(map[int]bool)
	claimedRev := make(map[int]bool)
	for _, c := range cands {
		if claimedOrig[c.Original.Ordinal] || claimedRev[c.Revised.Ordinal] {
			continue
		}
		claimedOrig[c.Original.Ordinal] = true
		claimedRev[c.Revised.Ordinal] = true
		res.Pairs = append(res.Pairs, classify(c, sc.profile))
	}

	for _, it := range orig.Items() {
		if !claimedOrig[it.Ordinal] {
			res.UnmatchedOriginal = append(res.UnmatchedOriginal, it)
		}
	}
	for _, it := range rev.Items() {
		if !claimedRev[it.Ordinal] {
			res.UnmatchedRevised = append(res.UnmatchedRevised, it)
		}
	}
	return res
}
