package anomaly

import (
	"testing"
)

func TestSummarize_CountMatchesFlags(t *testing.T) {
	s := NewScorer(DefaultThreshold)
	records := makeRecords(100, 102, 98, 500, 101, 99, 250)

	res, err := s.Score(records, ColumnCost, 1.0)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	stats, anomalies := Summarize(res)

	want := 0
	for _, sr := range res.Scored {
		if sr.IsAnomaly {
			want++
		}
	}
	if stats.OutlierCount != want {
		t.Errorf("OutlierCount = %d, want %d", stats.OutlierCount, want)
	}
	if len(anomalies) != want {
		t.Errorf("len(anomalies) = %d, want %d", len(anomalies), want)
	}
}

func TestSummarize_ReusesPassStats(t *testing.T) {
	res := &Result{Mean: 123.45, StdDev: 6.78}
	stats, _ := Summarize(res)

	if stats.Mean != 123.45 {
		t.Errorf("Mean = %v, want 123.45", stats.Mean)
	}
	if stats.StdDev != 6.78 {
		t.Errorf("StdDev = %v, want 6.78", stats.StdDev)
	}
}

func TestSummarize_PreservesOrder(t *testing.T) {
	s := NewScorer(DefaultThreshold)
	// Two spikes in a known order.
	records := makeRecords(10, 500, 12, 11, 450, 9, 13, 10, 11, 12)

	res, err := s.Score(records, ColumnCost, 1.0)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	_, anomalies := Summarize(res)

	if len(anomalies) < 2 {
		t.Fatalf("expected at least two anomalies, got %d", len(anomalies))
	}
	if anomalies[0].CustomerID != "B" || anomalies[1].CustomerID != "E" {
		t.Errorf("anomaly order = [%s %s], want [B E]",
			anomalies[0].CustomerID, anomalies[1].CustomerID)
	}
}

func TestSummarize_ZeroVariance(t *testing.T) {
	s := NewScorer(DefaultThreshold)
	res, err := s.Score(makeRecords(50, 50, 50), ColumnCost, 2.0)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	stats, anomalies := Summarize(res)
	if stats.StdDev != 0 {
		t.Errorf("StdDev = %v, want 0", stats.StdDev)
	}
	if stats.OutlierCount != 0 {
		t.Errorf("OutlierCount = %d, want 0", stats.OutlierCount)
	}
	if len(anomalies) != 0 {
		t.Errorf("anomalies = %d rows, want 0", len(anomalies))
	}
}
