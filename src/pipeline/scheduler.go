package pipeline

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/iafilius/FixtureCharts/src/logging"
)

// Scheduler triggers batches on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	gen  *Generator
}

// NewScheduler registers gen under the standard five-field cron expression (descriptors
// such as "@hourly" and "@every 10m" are accepted too).
func NewScheduler(gen *Generator, expr string) (*Scheduler, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty schedule")
	}
	c := cron.New()
	if _, err := c.AddFunc(expr, func() {
		res := gen.Run()
		logging.Debugf("[scheduler] batch finished with status %s", res.Status)
	}); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", expr, err)
	}
	return &Scheduler{cron: c, gen: gen}, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for a running batch to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
