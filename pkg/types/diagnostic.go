// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "sort"

// Severity grades a diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic codes.
const (
	DiagInputError       = "input-error"
	DiagDuplicateID      = "duplicate-id"
	DiagSourceMismatch   = "source-mismatch"
	DiagDegenerate       = "degenerate-geometry"
	DiagGridFit          = "grid-fit"
	DiagGridRejected     = "grid-rejected"
	DiagBBoxFallback     = "bbox-fallback"
	DiagIdentityFallback = "identity-fallback"
)

// Diagnostic is a non-fatal finding reported alongside a result.
type Diagnostic struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     string   `json:"code" yaml:"code"`
	EntityID string   `json:"entity_id,omitempty" yaml:"entity_id,omitempty"`
	Source   Source   `json:"source,omitempty" yaml:"source,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

// SortDiagnostics orders diagnostics by source, entity id, code, then
// message so that reports are stable across runs.
func SortDiagnostics(d []Diagnostic) {
	sort.SliceStable(d, func(i, j int) bool {
		a, b := d[i], d[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
}
