// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the floorplan-diff engine.
// Entities, tolerance profiles, and diff results are plain values with json
// and yaml tags so they travel unchanged between the engine, the store, the
// HTTP API, and the extraction collaborator that produces entity files.
package types

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/paulmach/orb"
)

// EntityType is the closed set of drawing element kinds the engine compares.
type EntityType string

const (
	EntityPoint    EntityType = "point"
	EntityLine     EntityType = "line"
	EntityPolyline EntityType = "polyline"
	EntityArc      EntityType = "arc"
	EntityCircle   EntityType = "circle"
	EntityText     EntityType = "text"
	EntityInsert   EntityType = "insert"
)

// EntityTypes lists every supported entity type in canonical order.
var EntityTypes = []EntityType{
	EntityPoint, EntityLine, EntityPolyline, EntityArc, EntityCircle, EntityText, EntityInsert,
}

// entityTypeAliases maps extractor-specific spellings onto the closed set.
var entityTypeAliases = map[string]EntityType{
	"lwpolyline":      EntityPolyline,
	"polyline2d":      EntityPolyline,
	"mtext":           EntityText,
	"attrib":          EntityText,
	"block":           EntityInsert,
	"block-reference": EntityInsert,
	"blockref":        EntityInsert,
}

// Valid reports whether t is one of the supported entity types.
func (t EntityType) Valid() bool {
	return slices.Contains(EntityTypes, t)
}

// ParseEntityType normalizes a type name, accepting common extractor aliases
// such as LWPOLYLINE or MTEXT.
func ParseEntityType(s string) (EntityType, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	if t := EntityType(name); t.Valid() {
		return t, true
	}
	if t, ok := entityTypeAliases[name]; ok {
		return t, true
	}
	return "", false
}

// Source tags which drawing an entity came from.
type Source string

const (
	SourceOriginal Source = "original"
	SourceRevised  Source = "revised"
)

// GeometryEntity is one drawing element as delivered by the extraction stage.
// The engine never mutates an entity; transforms produce copies.
type GeometryEntity struct {
	// ID is the stable identifier assigned by the source drawing (e.g. a DXF handle).
	ID string `json:"entity_id" yaml:"entity_id"`

	// Type selects the vertex semantics below.
	Type EntityType `json:"entity_type" yaml:"entity_type"`

	Layer string `json:"layer" yaml:"layer"`
	Color Color  `json:"color" yaml:"color"`

	// Vertices holds the ordered coordinates. Point, text, and insert carry
	// one vertex (position or insertion point); line carries two; polyline
	// carries two or more; arc and circle carry their center.
	Vertices []orb.Point `json:"vertices" yaml:"vertices"`

	// Closed marks a polyline whose last vertex connects back to the first.
	Closed bool `json:"closed,omitempty" yaml:"closed,omitempty"`

	// Radius, StartAngle, and EndAngle describe arcs and circles. Angles are
	// radians, counter-clockwise from the positive x axis.
	Radius     float64 `json:"radius,omitempty" yaml:"radius,omitempty"`
	StartAngle float64 `json:"start_angle,omitempty" yaml:"start_angle,omitempty"`
	EndAngle   float64 `json:"end_angle,omitempty" yaml:"end_angle,omitempty"`

	// Rotation is the placement angle of text and block inserts, in radians.
	Rotation float64 `json:"rotation,omitempty" yaml:"rotation,omitempty"`

	TextContent string `json:"text_content,omitempty" yaml:"text_content,omitempty"`
	BlockName   string `json:"block_name,omitempty" yaml:"block_name,omitempty"`

	Source Source `json:"source" yaml:"source"`
}

// Validate checks that the vertex count and parameters agree with the entity
// type. It returns an *InputError describing the first violation.
func (e GeometryEntity) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return &InputError{EntityID: e.ID, Source: e.Source, Reason: "missing entity_id"}
	}
	if !e.Type.Valid() {
		return e.inputErr("unsupported entity_type %q", e.Type)
	}
	if len(e.Vertices) == 0 {
		return e.inputErr("no vertices")
	}
	for i, v := range e.Vertices {
		if !finite(v[0]) || !finite(v[1]) {
			return e.inputErr("vertex %d is not finite", i)
		}
	}

	n := len(e.Vertices)
	switch e.Type {
	case EntityLine:
		if n != 2 {
			return e.inputErr("line requires 2 vertices, got %d", n)
		}
	case EntityPolyline:
		if n < 2 {
			return e.inputErr("polyline requires at least 2 vertices, got %d", n)
		}
	case EntityArc, EntityCircle:
		if n != 1 {
			return e.inputErr("%s requires a single center vertex, got %d", e.Type, n)
		}
		if !finite(e.Radius) || e.Radius < 0 {
			return e.inputErr("%s radius must be finite and non-negative", e.Type)
		}
		if e.Type == EntityArc && (!finite(e.StartAngle) || !finite(e.EndAngle)) {
			return e.inputErr("arc angles must be finite")
		}
	default:
		if n != 1 {
			return e.inputErr("%s requires a single vertex, got %d", e.Type, n)
		}
	}

	if !finite(e.Rotation) {
		return e.inputErr("rotation is not finite")
	}
	return nil
}

func (e GeometryEntity) inputErr(format string, args ...any) error {
	return &InputError{EntityID: e.ID, Source: e.Source, Reason: fmt.Sprintf(format, args...)}
}

// Clone returns a copy whose vertex slice does not alias e's.
func (e GeometryEntity) Clone() GeometryEntity {
	c := e
	c.Vertices = append([]orb.Point(nil), e.Vertices...)
	return c
}

// Label returns a short human-readable name for reports: the text content of
// annotations, the block name of inserts, or type@layer otherwise.
func (e GeometryEntity) Label() string {
	switch {
	case e.Type == EntityText && e.TextContent != "":
		return e.TextContent
	case e.Type == EntityInsert && e.BlockName != "":
		return e.BlockName
	case e.Layer != "":
		return string(e.Type) + "@" + e.Layer
	}
	return string(e.Type)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
