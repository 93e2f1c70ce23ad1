// Package scoring derives trending scores from the rotating counter buckets:
// each identifier's counts are weighted by bucket recency and summed, so
// recent activity dominates. Downstream recommendation builders consume the
// sorted result.
package scoring

import (
	"math"
	"sort"

	"github.com/mediatrack/recostats/internal/window"
)

// Score is one identifier with its weighted trending score.
type Score struct {
	String string  `json:"string"`
	Score  float64 `json:"score"`
}

// DefaultBucketWeights weights recent buckets highest; buckets not listed
// contribute nothing.
func DefaultBucketWeights() map[string]float64 {
	return map[string]float64{
		"this_hour":    1.0,
		"last_hour":    0.75,
		"hour_minus_2": 0.5,
		"today":        0.25,
		"yesterday":    0.1,
		"day_minus_2":  0.05,
	}
}

// Scorer computes weighted scores over a counter snapshot.
type Scorer struct {
	weights map[string]float64
}

// NewScorer creates a Scorer with the given per-bucket weights, falling back
// to DefaultBucketWeights when none are provided.
func NewScorer(weights map[string]float64) *Scorer {
	if len(weights) == 0 {
		weights = DefaultBucketWeights()
	}
	return &Scorer{weights: weights}
}

// Score sums count*weight per identifier across all buckets and returns the
// result sorted by score descending (ties broken by identifier for
// determinism). Scores are rounded to two decimals.
func (s *Scorer) Score(snap window.Snapshot) []Score {
	totals := make(map[string]float64)
	for bucket, counts := range snap {
		weight, ok := s.weights[bucket]
		if !ok || weight == 0 {
			continue
		}
		for identifier, count := range counts {
			totals[identifier] += float64(count) * weight
		}
	}

	scores := make([]Score, 0, len(totals))
	for identifier, total := range totals {
		scores = append(scores, Score{
			String: identifier,
			Score:  math.Round(total*100) / 100,
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].String < scores[j].String
	})
	return scores
}
