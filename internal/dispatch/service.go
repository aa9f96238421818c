package dispatch

import (
	"context"
	"time"

	"github.com/spidjo/billing-analyzer/internal/anomaly"
	"github.com/spidjo/billing-analyzer/internal/report"
	"github.com/spidjo/billing-analyzer/pkg/models"
)

// RecordSource supplies the cleaned record set to score.
type RecordSource interface {
	ListRecords(ctx context.Context) ([]models.Record, error)
}

// Renderer turns an assembled payload into attachment bytes.
type Renderer interface {
	Render(p report.Payload) ([]byte, error)
}

// Receipt summarizes a completed dispatch.
type Receipt struct {
	Trigger     Trigger   `json:"trigger"`
	Recipients  []string  `json:"recipients"`
	Anomalies   int       `json:"anomalies"`
	Threshold   float64   `json:"threshold"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Service runs the full report pipeline: score, summarize, assemble,
// render, deliver. Validation and render failures abort before anything
// is sent.
type Service struct {
	source    RecordSource
	scorer    *anomaly.Scorer
	assembler *report.Assembler
	renderer  Renderer
	sender    Sender
	policy    *Policy

	maxRows  int
	subject  string
	filename string
	now      func() time.Time
}

// NewService wires the report pipeline together.
func NewService(source RecordSource, scorer *anomaly.Scorer, assembler *report.Assembler,
	renderer Renderer, sender Sender, policy *Policy, maxRows int) *Service {
	if maxRows <= 0 {
		maxRows = report.DefaultMaxRows
	}
	return &Service{
		source:    source,
		scorer:    scorer,
		assembler: assembler,
		renderer:  renderer,
		sender:    sender,
		policy:    policy,
		maxRows:   maxRows,
		subject:   "Billing Anomaly Report",
		filename:  "anomaly_report.pdf",
		now:       time.Now,
	}
}

// Dispatch generates the anomaly report over the full current record set
// and delivers it. threshold <= 0 uses the scorer default. Two dispatches
// with the same data produce two separate emails; there is no suppression
// window.
func (s *Service) Dispatch(ctx context.Context, trigger Trigger, spec RecipientSpec, threshold float64, body string) (*Receipt, error) {
	// Validate recipients before any computation so an invalid address
	// never results in a partial send.
	recipients, err := s.policy.Recipients(spec)
	if err != nil {
		return nil, err
	}

	records, err := s.source.ListRecords(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.scorer.Score(records, anomaly.ColumnCost, threshold)
	if err != nil {
		return nil, err
	}
	stats, anomalies := anomaly.Summarize(res)

	generatedAt := s.now()
	payload := s.assembler.Assemble(stats, anomalies, s.maxRows, generatedAt)

	attachment, err := s.renderer.Render(payload)
	if err != nil {
		// Never send a partial or corrupt attachment.
		return nil, err
	}

	if body == "" {
		body = "Please find attached the latest billing anomaly report."
	}

	msg := Message{
		Sender:     s.policy.Sender(),
		Recipients: recipients,
		Subject:    s.subject,
		Body:       body,
		Attachment: attachment,
		Filename:   s.filename,
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return nil, err
	}

	used := threshold
	if used <= 0 {
		used = s.scorer.Threshold()
	}
	return &Receipt{
		Trigger:     trigger,
		Recipients:  recipients,
		Anomalies:   stats.OutlierCount,
		Threshold:   used,
		GeneratedAt: generatedAt,
	}, nil
}
