package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler refreshes the catalog cache on a fixed interval so browse and
// recommendation requests rarely have to hit Postgres.
type Scheduler struct {
	cron   *cron.Cron
	svc    *Service
	spec   string
	logger *zap.Logger
}

func NewScheduler(svc *Service, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		svc:    svc,
		spec:   fmt.Sprintf("@every %s", interval),
		logger: logger,
	}
}

// Start registers the refresh job and runs one refresh immediately so the
// cache is warm without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.refresh(ctx) }); err != nil {
		return fmt.Errorf("registering refresh job: %w", err)
	}
	s.cron.Start()
	s.logger.Info("catalog refresh scheduled", zap.String("spec", s.spec))

	go s.refresh(ctx)
	return nil
}

// Stop shuts the scheduler down, waiting for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("catalog refresh stopped")
}

func (s *Scheduler) refresh(ctx context.Context) {
	start := time.Now()
	if err := s.svc.Refresh(ctx); err != nil {
		s.logger.Warn("catalog refresh failed", zap.Error(err))
		return
	}
	s.logger.Debug("catalog refreshed", zap.Duration("took", time.Since(start)))
}
