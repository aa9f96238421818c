package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler fires the report job once a day at a fixed wall-clock time.
// If the process is not running at that time the run is skipped; there is
// no catch-up or backfill.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	spec    RecipientSpec
	timeout time.Duration
}

// NewScheduler creates a scheduler that dispatches the daily report to the
// configured recipient. dailyAt is a wall-clock time in "HH:MM" form.
func NewScheduler(dailyAt string, service *Service, spec RecipientSpec) (*Scheduler, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(dailyAt, "%d:%d", &hour, &minute); err != nil {
		return nil, fmt.Errorf("invalid schedule time %q: %w", dailyAt, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid schedule time %q", dailyAt)
	}

	s := &Scheduler{
		cron:    cron.New(),
		service: service,
		spec:    spec,
		timeout: 5 * time.Minute,
	}

	expr := fmt.Sprintf("%d %d * * *", minute, hour)
	if _, err := s.cron.AddFunc(expr, s.run); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins scheduling. It returns immediately.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// run executes one scheduled dispatch. Failures are logged and the
// scheduler waits for the next tick; the long-running process never
// crashes on a failed run.
func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	receipt, err := s.service.Dispatch(ctx, TriggerScheduled, s.spec, 0, "")
	if err != nil {
		log.Printf("scheduled report failed: %v", err)
		return
	}
	log.Printf("scheduled report sent to %v (%d anomalies)", receipt.Recipients, receipt.Anomalies)
}
