package anomaly

import (
	"math"

	"github.com/spidjo/billing-analyzer/pkg/models"
)

// Scorer flags statistically anomalous records using z-scores over a
// numeric column.
type Scorer struct {
	threshold float64 // number of standard deviations
}

// NewScorer creates a new scorer with the given default threshold.
// Non-positive thresholds fall back to DefaultThreshold.
func NewScorer(threshold float64) *Scorer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Scorer{threshold: threshold}
}

// Threshold returns the scorer's default threshold.
func (s *Scorer) Threshold() float64 {
	return s.threshold
}

// Score computes the mean and sample standard deviation of the selected
// column and flags every record whose absolute z-score exceeds threshold.
// A non-positive threshold uses the scorer's default. The input order is
// preserved and the input slice is not modified.
//
// When the standard deviation is zero (all values identical, or fewer than
// two records) z-scores are undefined: every row carries a NaN z-score and
// no row is flagged.
func (s *Scorer) Score(records []models.Record, column Column, threshold float64) (*Result, error) {
	value, ok := accessor(column)
	if !ok {
		return nil, &SchemaError{Column: string(column)}
	}
	if threshold <= 0 {
		threshold = s.threshold
	}

	res := &Result{Scored: make([]ScoredRecord, 0, len(records))}
	if len(records) == 0 {
		return res, nil
	}

	var sum float64
	for _, r := range records {
		sum += value(r)
	}
	res.Mean = sum / float64(len(records))

	// Sample standard deviation, divisor n-1. Undefined for n <= 1.
	if len(records) >= 2 {
		var sumSquares float64
		for _, r := range records {
			diff := value(r) - res.Mean
			sumSquares += diff * diff
		}
		res.StdDev = math.Sqrt(sumSquares / float64(len(records)-1))
	}

	for _, r := range records {
		sr := ScoredRecord{Record: r}
		if res.StdDev == 0 {
			// No variance, z-scores undefined. Never flag.
			sr.ZScore = math.NaN()
		} else {
			sr.ZScore = (value(r) - res.Mean) / res.StdDev
			sr.IsAnomaly = math.Abs(sr.ZScore) > threshold
		}
		res.Scored = append(res.Scored, sr)
	}

	return res, nil
}
