package services

import (
	"math"
	"sort"

	"github.com/irfndi/wayfare-go/internal/models"
)

// Scoring bands. Each term is clamped to its own band so the total stays in [0, 100].
const (
	DefaultReferenceFare = 500.0

	rateWeight  = 30.0
	trendWeight = 30.0
	routeWeight = 20.0
	fareWeight  = 20.0
	neutralFare = 10.0
	rateCeiling = 10.0
	trendFloor  = -10.0
	trendSpan   = 20.0
	maxScore    = rateWeight + trendWeight + routeWeight + fareWeight
)

// ScoreInput carries the primitive inputs of one destination score.
// Fare <= 0 means no fare is known.
type ScoreInput struct {
	Rate          float64
	TrendPercent  float64
	RouteQuality  float64
	Fare          float64
	ReferenceFare float64
}

// ScoreBreakdown is the per-term contribution to a score
type ScoreBreakdown struct {
	Rate  float64 `json:"rate"`
	Trend float64 `json:"trend"`
	Route float64 `json:"route"`
	Fare  float64 `json:"fare"`
	Total float64 `json:"total"`
}

// DestinationScorer blends rate level, rate trend, route quality and fare into one score.
// It holds no state beyond its reference fare and does no I/O.
type DestinationScorer struct {
	referenceFare float64
}

// NewDestinationScorer creates a scorer; a non-positive reference fare uses DefaultReferenceFare
func NewDestinationScorer(referenceFare float64) *DestinationScorer {
	if referenceFare <= 0 || math.IsNaN(referenceFare) || math.IsInf(referenceFare, 0) {
		referenceFare = DefaultReferenceFare
	}
	return &DestinationScorer{referenceFare: referenceFare}
}

// ReferenceFare returns the fare that scores half of the fare band
func (s *DestinationScorer) ReferenceFare() float64 {
	return s.referenceFare
}

// Score returns the total score in [0, 100]
func (s *DestinationScorer) Score(in ScoreInput) float64 {
	return s.Breakdown(in).Total
}

// Breakdown returns every term alongside the total
func (s *DestinationScorer) Breakdown(in ScoreInput) ScoreBreakdown {
	if in.ReferenceFare <= 0 {
		in.ReferenceFare = s.referenceFare
	}
	return ScoreDestination(in)
}

// ScoreDestination computes the score breakdown for in. Missing inputs
// fall back to neutral terms: no fare scores 10, a non-finite trend counts as flat.
func ScoreDestination(in ScoreInput) ScoreBreakdown {
	var b ScoreBreakdown

	rate := finiteOr(in.Rate, 0)
	if rate > 0 {
		b.Rate = math.Min(1, rate/rateCeiling) * rateWeight
	}

	trendPct := finiteOr(in.TrendPercent, 0)
	b.Trend = clamp((trendPct-trendFloor)/trendSpan*trendWeight, 0, trendWeight)

	b.Route = clamp(finiteOr(in.RouteQuality, 0), 0, 1) * routeWeight

	reference := in.ReferenceFare
	if reference <= 0 || math.IsNaN(reference) || math.IsInf(reference, 0) {
		reference = DefaultReferenceFare
	}
	fare := finiteOr(in.Fare, 0)
	if fare > 0 {
		b.Fare = clamp(fareWeight*(1-fare/(2*reference)), 0, fareWeight)
	} else {
		b.Fare = neutralFare
	}

	b.Total = clamp(b.Rate+b.Trend+b.Route+b.Fare, 0, maxScore)
	return b
}

// RankCandidates sorts candidates by descending score in place.
// The sort is stable, so tied candidates keep their input order.
func RankCandidates(candidates []models.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
