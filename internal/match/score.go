// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb/planar"

	"github.com/pdiddy/floorplan-diff/internal/geometry"
	"github.com/pdiddy/floorplan-diff/internal/spatial"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// scoreTie is the width of the score buckets used for ordering. Candidates
// whose scores round to the same multiple of scoreTie are ordered by
// entity ids.
const scoreTie = 1e-9

// Candidate is a tentative pairing of one original and one revised entity.
type Candidate struct {
	Original *spatial.Item
	Revised  *spatial.Item

	DistanceScore    float64
	CentroidDistance float64
	VertexCost       float64
	AttributePenalty float64

	// Degenerate is set when either shape could not be aligned vertex by
	// vertex and the score uses the centroid distance alone.
	Degenerate bool

	WithinTolerance bool
}

// scorer computes candidate scores under one profile.
type scorer struct {
	profile        types.ToleranceProfile
	centroidWeight float64
	vertexWeight   float64
}

func newScorer(profile types.ToleranceProfile, cfg types.MatcherConfig) scorer {
	s := scorer{profile: profile, centroidWeight: cfg.CentroidWeight, vertexWeight: cfg.VertexWeight}
	if s.centroidWeight < 0 || s.vertexWeight < 0 || s.centroidWeight+s.vertexWeight <= 0 {
		def := types.DefaultMatcherConfig()
		s.centroidWeight, s.vertexWeight = def.CentroidWeight, def.VertexWeight
	}
	return s
}

// limit is the largest score at which a revised entity is still considered
// the same entity as orig.
func (s scorer) limit(orig *spatial.Item) float64 {
	return math.Max(s.profile.SearchRadius, s.profile.RelativeSearch*orig.Shape.Diagonal())
}

func (s scorer) score(orig, rev *spatial.Item, limit float64) Candidate {
	c := Candidate{
		Original:         orig,
		Revised:          rev,
		CentroidDistance: planar.Distance(orig.Shape.Centroid, rev.Shape.Centroid),
		Degenerate:       orig.Shape.Degenerate != "" || rev.Shape.Degenerate != "",
	}
	if c.Degenerate {
		c.DistanceScore = (s.centroidWeight + s.vertexWeight) * c.CentroidDistance
	} else {
		c.VertexCost = geometry.VertexCost(orig.Shape, rev.Shape)
		c.DistanceScore = s.centroidWeight*c.CentroidDistance + s.vertexWeight*c.VertexCost
	}
	if s.profile.AttributeStrict {
		if !orig.Entity.Color.Equal(rev.Entity.Color) {
			c.AttributePenalty += s.profile.PositionTolerance
		}
		if orig.Entity.TextContent != rev.Entity.TextContent {
			c.AttributePenalty += s.profile.PositionTolerance
		}
	}
	c.DistanceScore += c.AttributePenalty
	c.WithinTolerance = c.DistanceScore <= limit
	return c
}

// candidates scores every revised entity near each original entity and
// returns those within tolerance, ordered for greedy assignment.
func (s scorer) candidates(orig, rev *spatial.Index) []Candidate {
	var out []Candidate
	for _, o := range orig.Items() {
		limit := s.limit(o)
		for _, r := range rev.Query(o.Shape.Bound, limit) {
			if c := s.score(o, r, limit); c.WithinTolerance {
				out = append(out, c)
			}
		}
	}
	sortCandidates(out)
	return out
}

// scoreKey quantizes a score to a multiple of scoreTie. The key depends on
// the score alone, so the order it induces is transitive.
func scoreKey(score float64) float64 {
	return math.Round(score / scoreTie)
}

// sortCandidates orders candidates by ascending score key, then original
// id, then revised id. The order does not depend on the input order.
func sortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if ka, kb := scoreKey(a.DistanceScore), scoreKey(b.DistanceScore); ka != kb {
			return ka < kb
		}
		if a.Original.Entity.ID != b.Original.Entity.ID {
			return a.Original.Entity.ID < b.Original.Entity.ID
		}
		return a.Revised.Entity.ID < b.Revised.Entity.ID
	})
}

func degenerateDiagnostic(it *spatial.Item) types.Diagnostic {
	return types.Diagnostic{
		Severity: types.SeverityWarning,
		Code:     types.DiagDegenerate,
		EntityID: it.Entity.ID,
		Source:   it.Entity.Source,
		Message: fmt.Sprintf("%s %q has %s geometry; compared by centroid only",
			it.Entity.Type, it.Entity.ID, it.Shape.Degenerate),
	}
}
