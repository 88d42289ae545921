// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package result assembles matcher output into the ordered, summarized
// DiffResult handed to reporting and storage.
package result

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/pdiddy/floorplan-diff/internal/match"
	"github.com/pdiddy/floorplan-diff/internal/spatial"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// Options controls what goes into a result besides the match itself.
type Options struct {
	// IncludeUnchanged adds a record for every unchanged pair. Unchanged
	// entities are always counted in the summary.
	IncludeUnchanged bool

	Normalization types.Normalization
	Profile       types.ToleranceProfile

	// Diagnostics from earlier stages; merged with the matcher's.
	Diagnostics []types.Diagnostic
}

// Build turns m into a DiffResult. Records are ordered removed, added,
// modified, then unchanged; each group is sorted by entity id.
func Build(m *match.Result, original, revised *spatial.Catalog, opts Options) types.DiffResult {
	res := types.DiffResult{
		Normalization: opts.Normalization,
		Profile:       opts.Profile,
		Records:       []types.DiffRecord{},
	}
	if original != nil {
		res.Summary.TotalOriginal = original.Len()
	}
	if revised != nil {
		res.Summary.TotalRevised = revised.Len()
	}

	diags := append([]types.Diagnostic(nil), opts.Diagnostics...)
	if m == nil {
		types.SortDiagnostics(diags)
		res.Diagnostics = diags
		return res
	}
	diags = append(diags, m.Diagnostics...)
	types.SortDiagnostics(diags)
	res.Diagnostics = diags

	removed := sortedItems(m.UnmatchedOriginal)
	added := sortedItems(m.UnmatchedRevised)
	var modified, unchanged []match.Pair
	for _, p := range m.Pairs {
		if p.Change == types.ChangeModified {
			modified = append(modified, p)
		} else {
			unchanged = append(unchanged, p)
		}
	}
	sortPairs(modified)
	sortPairs(unchanged)

	res.Summary.Removed = len(removed)
	res.Summary.Added = len(added)
	res.Summary.Modified = len(modified)
	res.Summary.Unchanged = len(unchanged)

	for _, it := range removed {
		res.Records = append(res.Records, types.DiffRecord{
			EntityID:    it.Entity.ID,
			EntityType:  it.Entity.Type,
			Layer:       it.Entity.Layer,
			Label:       it.Entity.Label(),
			ChangeType:  types.ChangeRemoved,
			OriginalRef: ref(it, types.SourceOriginal),
			Geometry:    points(it),
		})
	}
	for _, it := range added {
		res.Records = append(res.Records, types.DiffRecord{
			EntityID:   it.Entity.ID,
			EntityType: it.Entity.Type,
			Layer:      it.Entity.Layer,
			Label:      it.Entity.Label(),
			ChangeType: types.ChangeAdded,
			RevisedRef: ref(it, types.SourceRevised),
			Geometry:   points(it),
		})
	}
	for _, p := range modified {
		rec := pairRecord(p)
		rec.AttributeDeltas = p.Deltas
		rec.PreviousGeometry = points(p.Original)
		res.Records = append(res.Records, rec)
	}
	if opts.IncludeUnchanged {
		for _, p := range unchanged {
			res.Records = append(res.Records, pairRecord(p))
		}
	}
	return res
}

func pairRecord(p match.Pair) types.DiffRecord {
	return types.DiffRecord{
		EntityID:    p.Original.Entity.ID,
		EntityType:  p.Original.Entity.Type,
		Layer:       p.Original.Entity.Layer,
		Label:       p.Revised.Entity.Label(),
		ChangeType:  p.Change,
		OriginalRef: ref(p.Original, types.SourceOriginal),
		RevisedRef:  ref(p.Revised, types.SourceRevised),
		Geometry:    points(p.Revised),
		Score:       p.DistanceScore,
	}
}

func ref(it *spatial.Item, src types.Source) *types.EntityRef {
	return &types.EntityRef{EntityID: it.Entity.ID, Source: src, Index: it.Ordinal}
}

func points(it *spatial.Item) []orb.Point {
	return append([]orb.Point{}, it.Shape.Points...)
}

func sortedItems(items []*spatial.Item) []*spatial.Item {
	out := append([]*spatial.Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Entity.ID != out[j].Entity.ID {
			return out[i].Entity.ID < out[j].Entity.ID
		}
		return out[i].Ordinal < out[j].Ordinal
	})
	return out
}

func sortPairs(pairs []match.Pair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := pairs[i].Original, pairs[j].Original
		if a.Entity.ID != b.Entity.ID {
			return a.Entity.ID < b.Entity.ID
		}
		return a.Ordinal < b.Ordinal
	})
}
