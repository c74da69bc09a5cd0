package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/freight-sync/internal/config"
	"github.com/nurpe/freight-sync/internal/service"
)

// Scheduler runs the periodic sync cycle: contract fetch, pricing
// evaluation and notification dispatch, in that order.
type Scheduler struct {
	sync          *service.SyncService
	pricing       *service.PricingService
	notifications *service.NotificationService
	cfg           *config.Config
	log           zerolog.Logger
}

func New(
	sync *service.SyncService,
	pricing *service.PricingService,
	notifications *service.NotificationService,
	cfg *config.Config,
	log zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		sync:          sync,
		pricing:       pricing,
		notifications: notifications,
		cfg:           cfg,
		log:           log,
	}
}

// Run executes cycles at the configured interval until the context is
// canceled. A first cycle runs immediately on start.
func (s *Scheduler) Run(ctx context.Context) {
	s.runLogged(ctx)

	ticker := time.NewTicker(s.cfg.SyncInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *Scheduler) runLogged(ctx context.Context) {
	if err := s.RunCycle(ctx); err != nil {
		switch {
		case errors.Is(err, service.ErrSyncLeaseHeld):
			s.log.Debug().Msg("sync already running, skipping cycle")
		case errors.Is(err, service.ErrNoHandler):
			s.log.Warn().Msg("no contract handler configured, skipping cycle")
		default:
			s.log.Error().Err(err).Msg("sync cycle failed")
		}
	}
}

// RunCycle performs one synchronization cycle. Pricing and notifications
// only run after a successful fetch so they never act on stale data.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	started := time.Now()

	if err := s.sync.Run(ctx); err != nil {
		return err
	}
	if err := s.pricing.UpdateAllContracts(ctx); err != nil {
		return err
	}
	if err := s.notifications.SendPending(ctx); err != nil {
		return err
	}

	s.log.Info().Dur("elapsed", time.Since(started)).Msg("sync cycle completed")
	return nil
}
