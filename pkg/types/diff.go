// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "github.com/paulmach/orb"

// ChangeType classifies one entity in a diff.
type ChangeType string

const (
	ChangeAdded     ChangeType = "added"
	ChangeRemoved   ChangeType = "removed"
	ChangeModified  ChangeType = "modified"
	ChangeUnchanged ChangeType = "unchanged"
)

// Valid reports whether c is a known change type.
func (c ChangeType) Valid() bool {
	switch c {
	case ChangeAdded, ChangeRemoved, ChangeModified, ChangeUnchanged:
		return true
	}
	return false
}

// Attribute names used as keys of DiffRecord.AttributeDeltas.
const (
	AttrPosition    = "position"
	AttrShape       = "shape"
	AttrRotation    = "rotation"
	AttrRadius      = "radius"
	AttrClosed      = "closed"
	AttrColor       = "color"
	AttrTextContent = "text_content"
	AttrBlockName   = "block_name"
)

// EntityRef points back at an input entity.
type EntityRef struct {
	EntityID string `json:"entity_id" yaml:"entity_id"`
	Source   Source `json:"source" yaml:"source"`

	// Index is the entity's position in its input collection.
	Index int `json:"index" yaml:"index"`
}

// AttributeDelta is one before/after pair of a modified entity.
type AttributeDelta struct {
	Before any `json:"before,omitempty" yaml:"before,omitempty"`
	After  any `json:"after,omitempty" yaml:"after,omitempty"`

	// Delta is the numeric change where one exists: an orb.Point offset for
	// position, radians for rotation, drawing units for shape and radius.
	Delta any `json:"delta,omitempty" yaml:"delta,omitempty"`

	// Patch is a unified diff for text attributes.
	Patch string `json:"patch,omitempty" yaml:"patch,omitempty"`
}

// DiffRecord is the reported outcome for a single entity.
type DiffRecord struct {
	// EntityID is the original id for removed and matched entities and the
	// revised id for added ones.
	EntityID   string     `json:"entity_id" yaml:"entity_id"`
	EntityType EntityType `json:"entity_type" yaml:"entity_type"`
	Layer      string     `json:"layer" yaml:"layer"`
	Label      string     `json:"label,omitempty" yaml:"label,omitempty"`
	ChangeType ChangeType `json:"change_type" yaml:"change_type"`

	OriginalRef *EntityRef `json:"original_ref,omitempty" yaml:"original_ref,omitempty"`
	RevisedRef  *EntityRef `json:"revised_ref,omitempty" yaml:"revised_ref,omitempty"`

	AttributeDeltas map[string]AttributeDelta `json:"attribute_deltas,omitempty" yaml:"attribute_deltas,omitempty"`

	// Geometry is the sampled shape in the common (original) frame: the
	// revised shape for added and matched entities, the original for removed.
	Geometry []orb.Point `json:"geometry" yaml:"geometry"`

	// PreviousGeometry is the original shape of a modified entity.
	PreviousGeometry []orb.Point `json:"previous_geometry,omitempty" yaml:"previous_geometry,omitempty"`

	// Score is the distance score of a matched pair.
	Score float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// DiffSummary holds the per-class counts of a diff.
type DiffSummary struct {
	Added     int `json:"added" yaml:"added"`
	Removed   int `json:"removed" yaml:"removed"`
	Modified  int `json:"modified" yaml:"modified"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`

	// TotalOriginal and TotalRevised count the entities that took part in
	// matching, after invalid input was rejected.
	TotalOriginal int `json:"total_original" yaml:"total_original"`
	TotalRevised  int `json:"total_revised" yaml:"total_revised"`
}

// Changes returns the number of entities that differ between the drawings.
func (s DiffSummary) Changes() int {
	return s.Added + s.Removed + s.Modified
}

// Count returns the count for one change type.
func (s DiffSummary) Count(c ChangeType) int {
	switch c {
	case ChangeAdded:
		return s.Added
	case ChangeRemoved:
		return s.Removed
	case ChangeModified:
		return s.Modified
	case ChangeUnchanged:
		return s.Unchanged
	}
	return 0
}

// DiffResult is the complete output of one comparison.
type DiffResult struct {
	Summary       DiffSummary      `json:"summary" yaml:"summary"`
	Records       []DiffRecord     `json:"records" yaml:"records"`
	Normalization Normalization    `json:"normalization" yaml:"normalization"`
	Profile       ToleranceProfile `json:"profile" yaml:"profile"`
	Diagnostics   []Diagnostic     `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}
