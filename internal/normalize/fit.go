// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/pdiddy/floorplan-diff/internal/geometry"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// nodePair is one grid node seen in both collections.
type nodePair struct {
	original, revised orb.Point
}

// fitGrids pairs the grids of both collections and fits a similarity
// transform to their nodes. A non-empty reason means no fit was accepted;
// rejected reports whether a fit was computed and then discarded.
func fitGrids(orig, rev *grid, cfg types.NormalizerConfig) (types.NormalizationTransform, types.Normalization, string, bool) {
	var none types.NormalizationTransform
	switch {
	case orig == nil && rev == nil:
		return none, types.Normalization{}, "no reference grid found in either drawing", false
	case orig == nil:
		return none, types.Normalization{}, "no reference grid found in original drawing", false
	case rev == nil:
		return none, types.Normalization{}, "no reference grid found in revised drawing", false
	}

	nodes := correspondingNodes(orig, rev)
	if len(nodes) < 2 {
		return none, types.Normalization{}, fmt.Sprintf("only %d corresponding grid nodes found", len(nodes)), false
	}

	t, residual, err := fitSimilarity(nodes)
	if err != nil {
		return none, types.Normalization{}, "grid fit rejected: " + err.Error(), true
	}
	if t.ScaleX < 1/cfg.MaxScale || t.ScaleX > cfg.MaxScale {
		return none, types.Normalization{}, fmt.Sprintf("grid fit rejected: scale %.6g outside [%.6g, %.6g]",
			t.ScaleX, 1/cfg.MaxScale, cfg.MaxScale), true
	}
	if residual > cfg.MaxResidual {
		return none, types.Normalization{}, fmt.Sprintf("grid fit rejected: rms residual %.6g exceeds %.6g",
			residual, cfg.MaxResidual), true
	}
	return t, types.Normalization{
		Transform: t,
		Method:    types.MethodGridFit,
		GridNodes: len(nodes),
		Residual:  residual,
	}, "", false
}

// correspondingNodes pairs families across the two grids, choosing the
// pairing that needs the smaller rotation, and intersects corresponding
// lines into node pairs.
func correspondingNodes(orig, rev *grid) []nodePair {
	straight := geometry.AngleDiff(rev.a.direction, orig.a.direction, math.Pi)
	crossed := geometry.AngleDiff(rev.b.direction, orig.a.direction, math.Pi)

	revA, revB := rev.a, rev.b
	theta := straight
	if math.Abs(crossed) < math.Abs(straight) {
		revA, revB = rev.b, rev.a
		theta = crossed
	}

	pairsA := correspond(orig.a, revA, orig.a.direction, orig.a.direction-theta)
	pairsB := correspond(orig.b, revB, orig.b.direction, orig.b.direction-theta)

	var nodes []nodePair
	for _, pa := range pairsA {
		for _, pb := range pairsB {
			q, ok1 := intersect(pa[0], pb[0])
			p, ok2 := intersect(pa[1], pb[1])
			if ok1 && ok2 {
				nodes = append(nodes, nodePair{original: q, revised: p})
			}
		}
	}
	return nodes
}

// correspond matches the lines of two parallel families. Shared grid
// labels win; otherwise the offset sequences are aligned by spacing.
func correspond(orig, rev family, origDir, revDir float64) [][2]axisLine {
	ol, oo := orig.ordered(origDir)
	rl, ro := rev.ordered(revDir)

	if pairs := byLabel(ol, rl); len(pairs) >= 2 {
		return pairs
	}

	if len(ol) == 1 && len(rl) == 1 {
		return [][2]axisLine{{ol[0], rl[0]}}
	}
	if len(ol) < 2 || len(rl) < 2 {
		return nil
	}

	// Slide the shorter sequence along the longer one.
	short, long := ro, oo
	swapped := false
	if len(oo) < len(ro) {
		short, long = oo, ro
		swapped = true
	}
	shift := bestShift(short, long)

	pairs := make([][2]axisLine, len(short))
	for i := range short {
		if swapped {
			pairs[i] = [2]axisLine{ol[i], rl[i+shift]}
		} else {
			pairs[i] = [2]axisLine{ol[i+shift], rl[i]}
		}
	}
	return pairs
}

func byLabel(orig, rev []axisLine) [][2]axisLine {
	index := make(map[string]axisLine)
	for _, l := range rev {
		if l.label == "" {
			continue
		}
		if _, dup := index[l.label]; !dup {
			index[l.label] = l
		}
	}
	seen := make(map[string]bool)
	var pairs [][2]axisLine
	for _, l := range orig {
		if l.label == "" || seen[l.label] {
			continue
		}
		seen[l.label] = true
		if m, ok := index[l.label]; ok {
			pairs = append(pairs, [2]axisLine{l, m})
		}
	}
	return pairs
}

// bestShift returns the position of short inside long whose spacing
// pattern, normalized by total span, differs least. Ties prefer the window
// whose span ratio is closest to one, then the smallest shift.
func bestShift(short, long []float64) int {
	n := len(short)
	spanS := short[n-1] - short[0]

	type option struct {
		shift          int
		residual, skew float64
	}
	var opts []option
	for s := 0; s+n <= len(long); s++ {
		spanL := long[s+n-1] - long[s]
		if spanS <= geometry.Epsilon || spanL <= geometry.Epsilon {
			opts = append(opts, option{shift: s, residual: math.Inf(1), skew: math.Inf(1)})
			continue
		}
		var r float64
		for i := 1; i < n; i++ {
			d := (short[i]-short[i-1])/spanS - (long[s+i]-long[s+i-1])/spanL
			r += d * d
		}
		opts = append(opts, option{shift: s, residual: r, skew: math.Abs(math.Log(spanL / spanS))})
	}
	sort.SliceStable(opts, func(i, j int) bool {
		a, b := opts[i], opts[j]
		if math.Abs(a.residual-b.residual) > 1e-9 {
			return a.residual < b.residual
		}
		if math.Abs(a.skew-b.skew) > 1e-9 {
			return a.skew < b.skew
		}
		return a.shift < b.shift
	})
	return opts[0].shift
}

// fitSimilarity solves the least-squares rotation, uniform scale, and
// translation taking each revised node onto its original node. It returns
// the RMS residual of the fit.
func fitSimilarity(nodes []nodePair) (types.NormalizationTransform, float64, error) {
	n := float64(len(nodes))
	var pbx, pby, qbx, qby float64
	for _, np := range nodes {
		pbx += np.revised[0]
		pby += np.revised[1]
		qbx += np.original[0]
		qby += np.original[1]
	}
	pbx, pby, qbx, qby = pbx/n, pby/n, qbx/n, qby/n

	var a, b, norm float64
	for _, np := range nodes {
		px, py := np.revised[0]-pbx, np.revised[1]-pby
		qx, qy := np.original[0]-qbx, np.original[1]-qby
		a += px*qx + py*qy
		b += px*qy - py*qx
		norm += px*px + py*py
	}
	if norm <= geometry.Epsilon {
		return types.NormalizationTransform{}, 0, fmt.Errorf("revised grid nodes coincide")
	}
	theta := math.Atan2(b, a)
	scale := math.Hypot(a, b) / norm
	if scale <= geometry.Epsilon || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return types.NormalizationTransform{}, 0, fmt.Errorf("degenerate scale %g", scale)
	}

	sin, cos := math.Sincos(theta)
	t := types.NormalizationTransform{
		Rotation: theta,
		ScaleX:   scale,
		ScaleY:   scale,
		TX:       qbx - scale*(cos*pbx-sin*pby),
		TY:       qby - scale*(sin*pbx+cos*pby),
	}

	var sq float64
	for _, np := range nodes {
		p := geometry.Apply(t, np.revised)
		dx, dy := p[0]-np.original[0], p[1]-np.original[1]
		sq += dx*dx + dy*dy
	}
	return t, math.Sqrt(sq / n), nil
}
