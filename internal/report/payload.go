package report

import (
	"fmt"
	"math"
	"time"

	"github.com/spidjo/billing-analyzer/internal/anomaly"
)

// DefaultMaxRows bounds the anomaly table of an assembled report.
const DefaultMaxRows = 10

// SectionKind identifies a report section.
type SectionKind string

const (
	SectionTitle     SectionKind = "title"
	SectionStats     SectionKind = "stats"
	SectionAnomalies SectionKind = "anomalies"
	SectionTimestamp SectionKind = "timestamp"
)

// Section is one render-ready block of a report. Table sections carry a
// header row and display-safe cell text; title and timestamp sections
// carry plain text.
type Section struct {
	Kind    SectionKind `json:"kind"`
	Heading string      `json:"heading,omitempty"`
	Text    string      `json:"text,omitempty"`
	Header  []string    `json:"header,omitempty"`
	Rows    [][]string  `json:"rows,omitempty"`
}

// Payload is the structured, render-ready representation of a report.
// It is immutable once assembled and carries no knowledge of the render
// target; renderers only have to preserve section order.
type Payload struct {
	Sections []Section `json:"sections"`
}

// Assembler shapes summary statistics and flagged records into report
// payloads.
type Assembler struct {
	title string
}

// NewAssembler creates an assembler producing reports with the given title.
func NewAssembler(title string) *Assembler {
	if title == "" {
		title = "Billing Anomaly Report"
	}
	return &Assembler{title: title}
}

// Assemble builds a payload from a summary and its flagged records. The
// anomaly table keeps the first maxRows entries in the order received;
// callers wanting the worst N must sort before calling. maxRows <= 0 uses
// DefaultMaxRows. Each call returns an independent payload.
func (a *Assembler) Assemble(stats anomaly.SummaryStats, anomalies []anomaly.ScoredRecord, maxRows int, generatedAt time.Time) Payload {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	display := anomalies
	if len(display) > maxRows {
		display = display[:maxRows]
	}

	rows := make([][]string, 0, len(display))
	for _, sr := range display {
		rows = append(rows, []string{
			sr.CustomerID,
			displayDate(sr.BillingDate),
			displayFloat(sr.Cost),
			displayFloat(sr.ZScore),
		})
	}

	return Payload{Sections: []Section{
		{
			Kind: SectionTitle,
			Text: a.title,
		},
		{
			Kind:    SectionStats,
			Heading: "Summary Statistics",
			Header:  []string{"Metric", "Value"},
			Rows: [][]string{
				{"Mean Cost", displayFloat(stats.Mean)},
				{"Standard Deviation", displayFloat(stats.StdDev)},
				{"Total Anomalies", fmt.Sprintf("%d", stats.OutlierCount)},
			},
		},
		{
			Kind:    SectionAnomalies,
			Heading: "Anomalous Records",
			Header:  []string{"Customer", "Billing Date", "Cost", "Z-Score"},
			Rows:    rows,
		},
		{
			Kind: SectionTimestamp,
			Text: "Report generated: " + generatedAt.Format("2006-01-02 15:04:05"),
		},
	}}
}

// displayFloat renders a value for a report cell. Undefined values render
// as an empty string rather than a token that could be mistaken for data.
func displayFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}

func displayDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
