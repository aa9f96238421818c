package anomaly

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/spidjo/billing-analyzer/pkg/models"
)

func makeRecords(costs ...float64) []models.Record {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	records := make([]models.Record, len(costs))
	for i, c := range costs {
		records[i] = models.Record{
			CustomerID:  string(rune('A' + i)),
			BillingDate: date.AddDate(0, 0, i),
			Cost:        c,
		}
	}
	return records
}

func flaggedIDs(res *Result) []string {
	var ids []string
	for _, sr := range res.Scored {
		if sr.IsAnomaly {
			ids = append(ids, sr.CustomerID)
		}
	}
	return ids
}

func TestScorer_UnknownColumn(t *testing.T) {
	s := NewScorer(DefaultThreshold)
	_, err := s.Score(makeRecords(1, 2, 3), Column("charge"), 3.0)
	if err == nil {
		t.Fatal("expected error for unknown column")
	}
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError, got %T", err)
	}
	if schemaErr.Column != "charge" {
		t.Errorf("SchemaError.Column = %q, want %q", schemaErr.Column, "charge")
	}
}

func TestScorer_FlagsOutlier(t *testing.T) {
	// Eight ordinary charges and one spike. mean ~144.4, sample std ~133.3,
	// so the spike sits ~2.7 std devs out.
	s := NewScorer(DefaultThreshold)
	records := makeRecords(100, 100, 100, 100, 100, 100, 100, 100, 500)

	res, err := s.Score(records, ColumnCost, 2.0)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if len(res.Scored) != len(records) {
		t.Fatalf("scored %d rows, want %d", len(res.Scored), len(records))
	}

	ids := flaggedIDs(res)
	if len(ids) != 1 || ids[0] != "I" {
		t.Errorf("flagged = %v, want [I]", ids)
	}

	spike := res.Scored[len(res.Scored)-1]
	if spike.ZScore <= 2.0 {
		t.Errorf("spike z-score = %v, want > 2.0", spike.ZScore)
	}
	if got, want := res.Mean, (8*100.0+500.0)/9.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("mean = %v, want %v", got, want)
	}
}

func TestScorer_ConstantCostNeverFlagged(t *testing.T) {
	s := NewScorer(DefaultThreshold)
	records := makeRecords(50, 50, 50)

	for _, threshold := range []float64{1.0, 2.0, 3.0, 5.0} {
		res, err := s.Score(records, ColumnCost, threshold)
		if err != nil {
			t.Fatalf("Score failed: %v", err)
		}
		if res.StdDev != 0 {
			t.Errorf("threshold %v: std = %v, want 0", threshold, res.StdDev)
		}
		for _, sr := range res.Scored {
			if sr.IsAnomaly {
				t.Errorf("threshold %v: record %s flagged with zero variance", threshold, sr.CustomerID)
			}
			if !math.IsNaN(sr.ZScore) {
				t.Errorf("threshold %v: z-score = %v, want NaN", threshold, sr.ZScore)
			}
		}
	}
}

func TestScorer_DegenerateInput(t *testing.T) {
	tests := []struct {
		name  string
		costs []float64
	}{
		{"empty", nil},
		{"single record", []float64{120.5}},
	}

	s := NewScorer(DefaultThreshold)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Score(makeRecords(tt.costs...), ColumnCost, 3.0)
			if err != nil {
				t.Fatalf("Score failed: %v", err)
			}
			if res.StdDev != 0 {
				t.Errorf("std = %v, want 0", res.StdDev)
			}
			if ids := flaggedIDs(res); len(ids) != 0 {
				t.Errorf("flagged = %v, want none", ids)
			}
		})
	}
}

func TestScorer_ThresholdMonotonicity(t *testing.T) {
	// Lowering the threshold can only add anomalies, never remove them.
	s := NewScorer(DefaultThreshold)
	records := makeRecords(100, 102, 98, 500, 101, 99, 97, 103, 250, 5)

	low, err := s.Score(records, ColumnCost, 1.0)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	high, err := s.Score(records, ColumnCost, 2.0)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	lowSet := make(map[string]bool)
	for _, id := range flaggedIDs(low) {
		lowSet[id] = true
	}
	for _, id := range flaggedIDs(high) {
		if !lowSet[id] {
			t.Errorf("record %s flagged at threshold 2.0 but not at 1.0", id)
		}
	}
}

func TestScorer_OrderPreservedAndDeterministic(t *testing.T) {
	s := NewScorer(DefaultThreshold)
	records := makeRecords(10, 400, 12, 11, 9, 13)

	first, err := s.Score(records, ColumnCost, 2.0)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	second, err := s.Score(records, ColumnCost, 2.0)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	for i := range records {
		if first.Scored[i].CustomerID != records[i].CustomerID {
			t.Errorf("row %d: order not preserved", i)
		}
		if first.Scored[i].ZScore != second.Scored[i].ZScore {
			t.Errorf("row %d: z-score differs between identical passes", i)
		}
		if first.Scored[i].IsAnomaly != second.Scored[i].IsAnomaly {
			t.Errorf("row %d: flag differs between identical passes", i)
		}
	}
}

func TestScorer_DefaultThresholdFallback(t *testing.T) {
	s := NewScorer(0)
	if s.Threshold() != DefaultThreshold {
		t.Errorf("threshold = %v, want %v", s.Threshold(), DefaultThreshold)
	}

	res, err := s.Score(makeRecords(100, 100, 100, 100, 100, 100, 100, 100, 500), ColumnCost, 0)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	// Spike is ~2.7 std devs out, under the default 3.0.
	if ids := flaggedIDs(res); len(ids) != 0 {
		t.Errorf("flagged = %v, want none at default threshold", ids)
	}
}

func TestThresholdForSensitivity(t *testing.T) {
	tests := []struct {
		sensitivity string
		want        float64
	}{
		{"low", 4.0},
		{"medium", 3.0},
		{"high", 2.0},
		{"", 3.0},
		{"bogus", 3.0},
	}

	for _, tt := range tests {
		if got := ThresholdForSensitivity(tt.sensitivity); got != tt.want {
			t.Errorf("ThresholdForSensitivity(%q) = %v, want %v", tt.sensitivity, got, tt.want)
		}
	}
}
