// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"math"
	"path"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/pdiddy/floorplan-diff/internal/geometry"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// axisLine is a straight reference line found on an axis layer.
type axisLine struct {
	id     string
	a, b   orb.Point
	angle  float64 // direction in [0, π)
	length float64
	label  string
}

func (l axisLine) mid() orb.Point {
	return orb.Point{(l.a[0] + l.b[0]) / 2, (l.a[1] + l.b[1]) / 2}
}

// offset is the signed distance of the line from the origin along the
// normal of direction.
func (l axisLine) offset(direction float64) float64 {
	sin, cos := math.Sincos(direction)
	m := l.mid()
	return -sin*m[0] + cos*m[1]
}

// family is a set of parallel axis lines.
type family struct {
	direction float64
	lines     []axisLine
}

// ordered returns the family's lines sorted by offset along the normal of
// direction, together with those offsets.
func (f family) ordered(direction float64) ([]axisLine, []float64) {
	lines := append([]axisLine(nil), f.lines...)
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].offset(direction) < lines[j].offset(direction)
	})
	offsets := make([]float64, len(lines))
	for i, l := range lines {
		offsets[i] = l.offset(direction)
	}
	return lines, offsets
}

// grid holds the two dominant line families of one collection. A nil grid
// means none was found.
type grid struct {
	a, b family
}

func (g *grid) axisCount() int {
	if g == nil {
		return 0
	}
	return len(g.a.lines) + len(g.b.lines)
}

// detectGrid finds the two dominant, roughly orthogonal families of axis
// lines in entities.
func detectGrid(entities []types.GeometryEntity, cfg types.NormalizerConfig) *grid {
	lines := axisLines(entities, cfg)
	if len(lines) < 2 {
		return nil
	}

	bin := cfg.AngleBinDegrees * math.Pi / 180
	nbins := int(math.Ceil(math.Pi / bin))
	weights := make([]float64, nbins)
	for _, l := range lines {
		weights[int(l.angle/bin)%nbins] += l.length
	}
	heaviest := 0
	for i, w := range weights {
		if w > weights[heaviest] {
			heaviest = i
		}
	}
	center := (float64(heaviest) + 0.5) * bin

	famA := collect(lines, center, bin)
	famB := collect(lines, famA.direction+math.Pi/2, bin)
	if len(famA.lines) == 0 || len(famB.lines) == 0 {
		return nil
	}

	labelLines(entities, cfg, famA.lines, famB.lines)
	famA.lines = mergeCollinear(famA)
	famB.lines = mergeCollinear(famB)
	return &grid{a: famA, b: famB}
}

// axisLines extracts straight lines on axis layers, longest first.
func axisLines(entities []types.GeometryEntity, cfg types.NormalizerConfig) []axisLine {
	var out []axisLine
	for _, e := range entities {
		if !isAxisLayer(e.Layer, cfg.AxisLayers) {
			continue
		}
		straight := e.Type == types.EntityLine ||
			(e.Type == types.EntityPolyline && !e.Closed && len(e.Vertices) == 2)
		if !straight || len(e.Vertices) < 2 {
			continue
		}
		a, b := e.Vertices[0], e.Vertices[1]
		length := planar.Distance(a, b)
		if length <= geometry.Epsilon || length < cfg.MinAxisLength {
			continue
		}
		angle := math.Mod(math.Atan2(b[1]-a[1], b[0]-a[0]), math.Pi)
		if angle < 0 {
			angle += math.Pi
		}
		if angle >= math.Pi {
			angle = 0
		}
		out = append(out, axisLine{id: e.ID, a: a, b: b, angle: angle, length: length})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].length != out[j].length {
			return out[i].length > out[j].length
		}
		return out[i].id < out[j].id
	})
	return out
}

func isAxisLayer(layer string, patterns []string) bool {
	name := strings.ToUpper(layer)
	for _, p := range patterns {
		if ok, err := path.Match(strings.ToUpper(p), name); err == nil && ok {
			return true
		}
	}
	return false
}

// collect gathers the lines within tol of direction (mod π) and returns
// them with their length-weighted mean direction.
func collect(lines []axisLine, direction, tol float64) family {
	var (
		f        family
		sin, cos float64
	)
	for _, l := range lines {
		if math.Abs(geometry.AngleDiff(direction, l.angle, math.Pi)) > tol {
			continue
		}
		f.lines = append(f.lines, l)
		// Doubled angles average directions that wrap at π.
		s, c := math.Sincos(2 * l.angle)
		sin += l.length * s
		cos += l.length * c
	}
	f.direction = math.Mod(direction, math.Pi)
	if len(f.lines) > 0 {
		f.direction = math.Atan2(sin, cos) / 2
		if f.direction < 0 {
			f.direction += math.Pi
		}
	}
	return f
}

// mergeCollinear keeps one line per offset. Axes drawn as several segments
// along the same line collapse to the longest, which keeps any label.
func mergeCollinear(f family) []axisLine {
	lines, offsets := f.ordered(f.direction)
	if len(lines) < 2 {
		return lines
	}
	span := offsets[len(offsets)-1] - offsets[0]
	tol := 1e-6 * math.Max(1, span)

	out := []axisLine{lines[0]}
	last := offsets[0]
	for i := 1; i < len(lines); i++ {
		if offsets[i]-last <= tol {
			kept := &out[len(out)-1]
			if lines[i].length > kept.length {
				label := kept.label
				*kept = lines[i]
				if kept.label == "" {
					kept.label = label
				}
			} else if kept.label == "" {
				kept.label = lines[i].label
			}
			continue
		}
		out = append(out, lines[i])
		last = offsets[i]
	}
	return out
}

// intersect returns the intersection of the infinite lines through l and m.
func intersect(l, m axisLine) (orb.Point, bool) {
	d1 := orb.Point{l.b[0] - l.a[0], l.b[1] - l.a[1]}
	d2 := orb.Point{m.b[0] - m.a[0], m.b[1] - m.a[1]}
	den := d1[0]*d2[1] - d1[1]*d2[0]
	if math.Abs(den) <= geometry.Epsilon*l.length*m.length {
		return orb.Point{}, false
	}
	wx, wy := m.a[0]-l.a[0], m.a[1]-l.a[1]
	u := (wx*d2[1] - wy*d2[0]) / den
	return orb.Point{l.a[0] + u*d1[0], l.a[1] + u*d1[1]}, true
}
