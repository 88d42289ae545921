// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package spatial indexes entity bounding boxes for candidate lookup. Each
// index is an R-tree bulk-loaded once and read-only afterwards, so it can be
// queried from several goroutines without locking.
package spatial

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"github.com/pdiddy/floorplan-diff/internal/geometry"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// R-tree node fan-out.
const (
	minChildren = 25
	maxChildren = 50
)

// touchPad widens queries slightly because the R-tree does not report
// boxes that only share an edge. Results are filtered exactly afterwards.
const touchPad = 1e-7

// Item is one indexed entity.
type Item struct {
	Entity types.GeometryEntity
	Shape  geometry.Shape

	// Ordinal is the entity's position in the collection the index was
	// built from.
	Ordinal int

	// Box is the shape's bounding box expanded by the index margin.
	Box orb.Bound

	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (it *Item) Bounds() rtreego.Rect {
	return it.rect
}

// Index is a bulk-loaded R-tree over entity bounding boxes.
type Index struct {
	tree  *rtreego.Rtree
	items []*Item
}

// Entry pairs an entity with its position in the input collection.
type Entry struct {
	Entity  types.GeometryEntity
	Ordinal int
}

// Build indexes entities, expanding every bounding box by margin on each
// side. Shapes are sampled once here and reused by the matcher.
func Build(entities []types.GeometryEntity, margin float64, sampler geometry.Sampler) *Index {
	entries := make([]Entry, len(entities))
	for i, e := range entities {
		entries[i] = Entry{Entity: e, Ordinal: i}
	}
	return BuildEntries(entries, margin, sampler)
}

// BuildEntries is Build for entities that keep their ordinals from a larger
// collection.
func BuildEntries(entries []Entry, margin float64, sampler geometry.Sampler) *Index {
	if margin < 0 {
		margin = 0
	}
	ix := &Index{items: make([]*Item, 0, len(entries))}
	objs := make([]rtreego.Spatial, 0, len(entries))
	for _, en := range entries {
		shape := sampler.Shape(en.Entity)
		box := shape.Bound.Pad(margin)
		it := &Item{
			Entity:  en.Entity,
			Shape:   shape,
			Ordinal: en.Ordinal,
			Box:     box,
			rect:    toRect(box.Pad(touchPad)),
		}
		ix.items = append(ix.items, it)
		objs = append(objs, it)
	}
	sort.SliceStable(ix.items, func(i, j int) bool { return ix.items[i].Ordinal < ix.items[j].Ordinal })
	if len(objs) > 0 {
		ix.tree = rtreego.NewTree(2, minChildren, maxChildren, objs...)
	}
	return ix
}

// Len returns the number of indexed entities.
func (ix *Index) Len() int {
	return len(ix.items)
}

// Items returns every indexed entity in ordinal order.
func (ix *Index) Items() []*Item {
	return ix.items
}

// Query returns the items whose expanded box intersects box padded by
// margin on each side, sorted by ordinal.
func (ix *Index) Query(box orb.Bound, margin float64) []*Item {
	if ix.tree == nil {
		return nil
	}
	if margin < 0 {
		margin = 0
	}
	want := box.Pad(margin)
	hits := ix.tree.SearchIntersect(toRect(want.Pad(touchPad)))

	out := make([]*Item, 0, len(hits))
	for _, h := range hits {
		it := h.(*Item)
		if it.Box.Intersects(want) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

// toRect converts b to an R-tree rectangle. Boxes are always padded before
// conversion, so they have positive extent on both axes.
func toRect(b orb.Bound) rtreego.Rect {
	r, err := rtreego.NewRectFromPoints(
		rtreego.Point{b.Min[0], b.Min[1]},
		rtreego.Point{b.Max[0], b.Max[1]},
	)
	if err != nil {
		// Only a dimension mismatch fails, and both points are 2-D.
		panic(err)
	}
	return r
}
