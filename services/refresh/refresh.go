// Package refreshsvc periodically reloads the timetable snapshot so that changes made
// outside the API (admin imports, other replicas) eventually show up.
package refreshsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/ratiba/core"
)

// Refresher is anything able to reload its state, e.g. schedule.Service.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	target  Refresher
	logger  core.Logger
	timeout time.Duration
}

// New schedules target.Refresh on `spec` (standard cron or "@every <duration>").
func New(spec string, target Refresher, logger core.Logger, timeout time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		target:  target,
		logger:  logger,
		timeout: timeout,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("parsing refresh schedule %q", spec))
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.target.Refresh(ctx); err != nil {
		s.logger.Warn("scheduled snapshot refresh failed", errors.Wrap(err, "refreshing snapshot"))
	}
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops the scheduler and waits for a running refresh to complete.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
