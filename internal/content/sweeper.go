package content

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/logfields"
)

// Sweeper periodically closes idle sessions.
type Sweeper struct {
	scheduler gocron.Scheduler
	service   *Service
	logger    *slog.Logger
}

// NewSweeper schedules SweepIdle every interval. It does not run until Start.
func NewSweeper(service *Service, interval time.Duration) (*Sweeper, error) {
	if interval <= 0 {
		return nil, errors.ConfigError("idle sweep interval must be positive").Build()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to create scheduler").Build()
	}
	sw := &Sweeper{scheduler: s, service: service, logger: service.logger}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(sw.run),
		gocron.WithName("idle-session-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to schedule idle session sweep").Build()
	}
	return sw, nil
}

// Start begins the schedule.
func (sw *Sweeper) Start() {
	sw.logger.Info("Starting idle session sweeper")
	sw.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for a running sweep.
func (sw *Sweeper) Stop() error {
	sw.logger.Info("Stopping idle session sweeper")
	return sw.scheduler.Shutdown()
}

func (sw *Sweeper) run() {
	if closed := sw.service.SweepIdle(context.Background()); len(closed) > 0 {
		sw.logger.Info("Closed idle sessions", slog.Int("count", len(closed)))
	}
}

// SweepIdle closes every session idle for longer than the configured
// timeout. Sessions with pending uploads are kept. It returns the closed ids.
func (s *Service) SweepIdle(ctx context.Context) []string {
	if s.opts.IdleTimeout <= 0 {
		return nil
	}
	cutoff := s.opts.Now().Add(-s.opts.IdleTimeout)

	s.mu.Lock()
	var idle []string
	for id, doc := range s.docs {
		if doc.lastUsed().Before(cutoff) && doc.Session.Editable() {
			idle = append(idle, id)
		}
	}
	s.mu.Unlock()

	closed := idle[:0]
	for _, id := range idle {
		if err := s.closeWithReason(ctx, id, "idle"); err != nil {
			// Closed concurrently.
			s.logger.Debug("Idle session already closed", logfields.SessionID(id))
			continue
		}
		closed = append(closed, id)
	}
	return closed
}
