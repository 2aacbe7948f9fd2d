package services

import (
	"fmt"
	"time"

	"github.com/omar10120/ksdora-backend/internal/database"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SweeperService runs the active half of seat lock expiry: a scheduled job
// that releases expired locks so seats free up even when nobody touches the
// trip. The lazy half lives in the claim queries themselves.
type SweeperService struct {
	cron     *cron.Cron
	lockRepo *database.LockRepository
	interval time.Duration
	logger   *logrus.Logger
}

// NewSweeperService creates a new SweeperService
func NewSweeperService(lockRepo *database.LockRepository, interval time.Duration, logger *logrus.Logger) *SweeperService {
	return &SweeperService{
		cron:     cron.New(),
		lockRepo: lockRepo,
		interval: interval,
		logger:   logger,
	}
}

// Start schedules the sweep job and starts the scheduler
func (s *SweeperService) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.sweepExpiredLocksJob); err != nil {
		return fmt.Errorf("failed to schedule lock sweep job: %w", err)
	}
	s.cron.Start()
	s.logger.WithField("interval", s.interval.String()).Info("Seat lock sweeper started")
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *SweeperService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Seat lock sweeper stopped")
}

// RunNow triggers one sweep immediately and returns the release count
func (s *SweeperService) RunNow() (int, error) {
	return s.lockRepo.ReleaseExpired(time.Now())
}

func (s *SweeperService) sweepExpiredLocksJob() {
	startTime := time.Now()

	released, err := s.lockRepo.ReleaseExpired(startTime)
	if err != nil {
		s.logger.WithError(err).Error("Seat lock sweep failed")
		return
	}
	if released > 0 {
		s.logger.WithFields(logrus.Fields{
			"released": released,
			"duration": time.Since(startTime).String(),
		}).Info("Released expired seat locks")
	}
}
