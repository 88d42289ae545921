// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"go.yaml.in/yaml/v3"
)

// Color is an entity color as extractors report it: either an AutoCAD Color
// Index (ACI) integer or a symbolic value such as "red", "bylayer", or
// "#ff0000". The zero value means the color was not set.
type Color struct {
	Index int
	Name  string
}

// aciColors holds the seven standard ACI colors and their names.
// ACI indexes that defer to the enclosing block or layer.
const (
	aciByBlock = 0
	aciByLayer = 256
)

var aciColors = map[int]struct {
	name string
	rgb  colorful.Color
}{
	1: {"red", colorful.Color{R: 1, G: 0, B: 0}},
	2: {"yellow", colorful.Color{R: 1, G: 1, B: 0}},
	3: {"green", colorful.Color{R: 0, G: 1, B: 0}},
	4: {"cyan", colorful.Color{R: 0, G: 1, B: 1}},
	5: {"blue", colorful.Color{R: 0, G: 0, B: 1}},
	6: {"magenta", colorful.Color{R: 1, G: 0, B: 1}},
	7: {"white", colorful.Color{R: 1, G: 1, B: 1}},
}

// ColorIndex returns an ACI color.
func ColorIndex(i int) Color { return Color{Index: i} }

// ColorName returns a symbolic color.
func ColorName(name string) Color { return Color{Name: name} }

// IsZero reports whether the color is unset.
func (c Color) IsZero() bool { return c.Index == 0 && c.Name == "" }

// Canonical returns a comparable form: standard ACI colors, their names, and
// hex strings all reduce to lowercase "#rrggbb". ACI 0 and 256 become
// "byblock" and "bylayer", other indexes become "aci:N", and remaining
// names are lowercased. An Index of 0 with no Name is the unset color; a
// by-block color given by number must use the name "0".
func (c Color) Canonical() string {
	if c.Name == "" {
		if c.Index == 0 {
			return ""
		}
		return canonicalIndex(c.Index)
	}

	name := strings.ToLower(strings.TrimSpace(c.Name))
	if i, err := strconv.Atoi(name); err == nil {
		return canonicalIndex(i)
	}
	if strings.HasPrefix(name, "#") {
		if rgb, err := colorful.Hex(name); err == nil {
			return rgb.Hex()
		}
		return name
	}
	for _, aci := range aciColors {
		if aci.name == name {
			return aci.rgb.Hex()
		}
	}
	return name
}

func canonicalIndex(i int) string {
	switch i {
	case aciByBlock:
		return "byblock"
	case aciByLayer:
		return "bylayer"
	}
	if aci, ok := aciColors[i]; ok {
		return aci.rgb.Hex()
	}
	return "aci:" + strconv.Itoa(i)
}

// Equal reports whether two colors denote the same value.
func (c Color) Equal(other Color) bool {
	return c.Canonical() == other.Canonical()
}

// String returns the color as it was given.
func (c Color) String() string {
	if c.Name != "" {
		return c.Name
	}
	if c.Index == 0 {
		return ""
	}
	return strconv.Itoa(c.Index)
}

// MarshalJSON writes indexed colors as numbers and symbolic colors as strings.
func (c Color) MarshalJSON() ([]byte, error) {
	if c.Name != "" {
		return json.Marshal(c.Name)
	}
	return json.Marshal(c.Index)
}

// UnmarshalJSON accepts a number, a string, or null.
func (c *Color) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*c = Color{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return fmt.Errorf("decoding color: %w", err)
		}
		*c = Color{Name: name}
		return nil
	}
	var idx int
	if err := json.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("decoding color: %w", err)
	}
	*c = Color{Index: idx}
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (c Color) MarshalYAML() (any, error) {
	if c.Name != "" {
		return c.Name, nil
	}
	return c.Index, nil
}

// UnmarshalYAML accepts an integer or string scalar.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("decoding color: expected scalar, got kind %d", value.Kind)
	}
	if value.Tag == "!!int" {
		idx, err := strconv.Atoi(value.Value)
		if err != nil {
			return fmt.Errorf("decoding color: %w", err)
		}
		*c = Color{Index: idx}
		return nil
	}
	if value.Tag == "!!null" {
		*c = Color{}
		return nil
	}
	*c = Color{Name: value.Value}
	return nil
}
