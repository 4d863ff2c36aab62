package service

import (
	"context"
	"time"

	"github.com/bathtrack/bathtrack-backend/internal/product/repository"
	"github.com/bathtrack/bathtrack-backend/pkg/logger"
	"github.com/bathtrack/bathtrack-backend/pkg/userctx"
)

// ReminderScheduler runs reminder scans periodically across all users.
// Clients polling GET /reminders get reminders on demand; the scheduler
// covers users who are not polling, pushing reminder.due events for them.
type ReminderScheduler struct {
	reminders   *ReminderService
	productRepo *repository.ProductRepository
	interval    time.Duration
	logger      *logger.Logger
	cancel      context.CancelFunc
}

// NewReminderScheduler creates a new reminder scheduler
func NewReminderScheduler(reminders *ReminderService, productRepo *repository.ProductRepository, interval time.Duration, log *logger.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		reminders:   reminders,
		productRepo: productRepo,
		interval:    interval,
		logger:      log,
	}
}

// Start starts the scheduler in a background goroutine.
// On each tick it scans every user that owns at least one product.
func (s *ReminderScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().Dur("interval", s.interval).Msg("reminder scheduler started")

		// Run an initial scan immediately
		s.runScanCycle(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("reminder scheduler stopped")
				return
			case <-ticker.C:
				s.runScanCycle(ctx)
			}
		}
	}()
}

// Stop stops the scheduler goroutine
func (s *ReminderScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// runScanCycle scans every user's products for due reminders
func (s *ReminderScheduler) runScanCycle(ctx context.Context) {
	start := time.Now()
	s.logger.Info().Msg("starting reminder scan cycle")

	userIDs, err := s.productRepo.ListUserIDs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users with products")
		return
	}

	fired := 0
	for _, userID := range userIDs {
		userCtx := userctx.WithUserID(ctx, userID)

		reminders, err := s.reminders.DueReminders(userCtx)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("reminder scan failed for user")
			continue
		}
		fired += len(reminders)
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Int("user_count", len(userIDs)).
		Int("reminders_fired", fired).
		Msg("reminder scan cycle completed")
}
