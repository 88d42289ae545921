// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package spatial

import (
	"sort"

	"github.com/pdiddy/floorplan-diff/internal/geometry"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// Key identifies a bucket of entities that may match each other.
type Key struct {
	Type  types.EntityType
	Layer string
}

// String renders the key as "type@layer".
func (k Key) String() string {
	return string(k.Type) + "@" + k.Layer
}

// Less orders keys by entity type, then layer.
func (k Key) Less(o Key) bool {
	if k.Type != o.Type {
		return k.Type < o.Type
	}
	return k.Layer < o.Layer
}

// Catalog partitions a collection into one index per (type, layer) bucket.
type Catalog struct {
	buckets map[Key]*Index
	keys    []Key
	total   int
}

// BuildCatalog groups entities by type and layer and indexes each group.
// Item ordinals refer to positions in entities.
func BuildCatalog(entities []types.GeometryEntity, margin float64, sampler geometry.Sampler) *Catalog {
	entries := make([]Entry, len(entities))
	for i, e := range entities {
		entries[i] = Entry{Entity: e, Ordinal: i}
	}
	return BuildCatalogEntries(entries, margin, sampler)
}

// BuildCatalogEntries is BuildCatalog for entries that keep the ordinals of
// the collection they were selected from.
func BuildCatalogEntries(entries []Entry, margin float64, sampler geometry.Sampler) *Catalog {
	groups := make(map[Key][]Entry)
	for _, en := range entries {
		k := Key{Type: en.Entity.Type, Layer: en.Entity.Layer}
		groups[k] = append(groups[k], en)
	}

	c := &Catalog{buckets: make(map[Key]*Index, len(groups)), total: len(entries)}
	for k, entries := range groups {
		c.buckets[k] = BuildEntries(entries, margin, sampler)
		c.keys = append(c.keys, k)
	}
	sort.Slice(c.keys, func(i, j int) bool { return c.keys[i].Less(c.keys[j]) })
	return c
}

// Keys returns the bucket keys in sorted order.
func (c *Catalog) Keys() []Key {
	return c.keys
}

// Bucket returns the index for k.
func (c *Catalog) Bucket(k Key) (*Index, bool) {
	ix, ok := c.buckets[k]
	return ix, ok
}

// Len returns the number of entities across all buckets.
func (c *Catalog) Len() int {
	return c.total
}

// UnionKeys returns the sorted union of both catalogs' bucket keys.
func UnionKeys(a, b *Catalog) []Key {
	seen := make(map[Key]bool)
	var keys []Key
	for _, c := range []*Catalog{a, b} {
		if c == nil {
			continue
		}
		for _, k := range c.keys {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}
