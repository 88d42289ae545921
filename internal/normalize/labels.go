// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"math"
	"regexp"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// axisLabelPattern matches the usual grid designations: letters for one
// direction, numbers for the other, optionally primed (A, BB, C', 12, 3').
var axisLabelPattern = regexp.MustCompile(`^(?:[A-Z]{1,2}|[0-9]{1,3})'?$`)

type gridLabel struct {
	text  string
	at    orb.Point
	reach float64
}

// labelLines attaches axis designations to the nearest line end. A label
// inside a bubble (a circle on an axis layer) is placed at the bubble's
// center and may sit a bubble radius further away.
func labelLines(entities []types.GeometryEntity, cfg types.NormalizerConfig, families ...[]axisLine) {
	labels := findLabels(entities, cfg)
	if len(labels) == 0 {
		return
	}
	best := make(map[*axisLine]float64)
	for _, lb := range labels {
		var (
			target *axisLine
			dist   = math.Inf(1)
		)
		for _, lines := range families {
			for i := range lines {
				l := &lines[i]
				d := math.Min(planar.Distance(lb.at, l.a), planar.Distance(lb.at, l.b))
				if d < dist {
					target, dist = l, d
				}
			}
		}
		if target == nil || dist > lb.reach {
			continue
		}
		if prev, ok := best[target]; ok && prev <= dist {
			continue
		}
		best[target] = dist
		target.label = lb.text
	}
}

func findLabels(entities []types.GeometryEntity, cfg types.NormalizerConfig) []gridLabel {
	var bubbles []types.GeometryEntity
	for _, e := range entities {
		if e.Type == types.EntityCircle && len(e.Vertices) == 1 && isAxisLayer(e.Layer, cfg.AxisLayers) {
			bubbles = append(bubbles, e)
		}
	}

	var out []gridLabel
	for _, e := range entities {
		if e.Type != types.EntityText || len(e.Vertices) == 0 || !isAxisLayer(e.Layer, cfg.AxisLayers) {
			continue
		}
		text := strings.ToUpper(strings.TrimSpace(e.TextContent))
		if !axisLabelPattern.MatchString(text) {
			continue
		}
		lb := gridLabel{text: text, at: e.Vertices[0], reach: cfg.LabelDistance}
		for _, c := range bubbles {
			if planar.Distance(c.Vertices[0], lb.at) <= c.Radius {
				lb.at = c.Vertices[0]
				lb.reach = cfg.LabelDistance + c.Radius
				break
			}
		}
		out = append(out, lb)
	}
	return out
}
