package anomaly

import (
	"fmt"

	"github.com/spidjo/billing-analyzer/pkg/models"
)

// Column selects a numeric field of a Record for scoring.
type Column string

const (
	// ColumnCost scores the cost field of each record.
	ColumnCost Column = "cost"
)

// DefaultThreshold is the z-score threshold used when the caller does not
// supply one.
const DefaultThreshold = 3.0

// SchemaError reports that the requested column does not exist on the
// input records. Scoring fails fast rather than silently skipping.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("column %q not found in records", e.Column)
}

// ScoredRecord is a Record augmented with its z-score and anomaly flag.
// Scored records are recomputed on every pass and never persisted; the
// plain Record remains the source of truth.
type ScoredRecord struct {
	models.Record
	ZScore    float64 `json:"z_score"`
	IsAnomaly bool    `json:"is_anomaly"`
}

// SummaryStats holds the display statistics of a single scoring pass.
type SummaryStats struct {
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std"`
	OutlierCount int     `json:"outlier_count"`
}

// Result couples the scored rows with the mean and standard deviation of
// the pass that produced them. Summaries reuse these values instead of
// recomputing, so displayed stats always match the flags.
type Result struct {
	Scored []ScoredRecord
	Mean   float64
	StdDev float64
}

func accessor(column Column) (func(models.Record) float64, bool) {
	switch column {
	case ColumnCost:
		return func(r models.Record) float64 { return r.Cost }, true
	}
	return nil, false
}

// ThresholdForSensitivity maps a named sensitivity level to a z-score
// threshold. Unknown names get the medium threshold.
func ThresholdForSensitivity(sensitivity string) float64 {
	switch sensitivity {
	case "low":
		return 4.0
	case "high":
		return 2.0
	default: // medium
		return DefaultThreshold
	}
}
