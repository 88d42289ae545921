// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// InputError reports a malformed entity. It rejects only that entity; the
// engine turns it into a diagnostic and keeps going.
type InputError struct {
	EntityID string
	Source   Source
	Reason   string
}

func (e *InputError) Error() string {
	if e.EntityID == "" {
		return fmt.Sprintf("invalid %s entity: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("invalid %s entity %s: %s", e.Source, e.EntityID, e.Reason)
}

// ToleranceError reports an unusable tolerance profile. It is fatal for the
// comparison; callers retry with a corrected profile.
type ToleranceError struct {
	Profile string
	Field   string
	Value   float64
	Reason  string
}

func (e *ToleranceError) Error() string {
	name := e.Profile
	if name == "" {
		name = "unnamed"
	}
	return fmt.Sprintf("tolerance profile %s: %s = %g: %s", name, e.Field, e.Value, e.Reason)
}
