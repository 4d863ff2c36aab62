package service

import (
	"context"
	"sync"
	"time"

	"github.com/bathtrack/bathtrack-backend/internal/product/events"
	"github.com/bathtrack/bathtrack-backend/internal/product/expiry"
	"github.com/bathtrack/bathtrack-backend/internal/product/repository"
	"github.com/bathtrack/bathtrack-backend/pkg/logger"
	"github.com/bathtrack/bathtrack-backend/pkg/userctx"
)

// ReminderService evaluates reminder eligibility across a user's products.
// It keeps one session state per user so each product reminds at most once
// per session; Reset discards the state and eligible products remind again.
type ReminderService struct {
	productRepo *repository.ProductRepository
	publisher   *events.ProductEventPublisher
	leadDays    int
	logger      *logger.Logger
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*expiry.SessionState
}

// NewReminderService creates a new reminder service
func NewReminderService(
	productRepo *repository.ProductRepository,
	publisher *events.ProductEventPublisher,
	leadDays int,
	log *logger.Logger,
) *ReminderService {
	return &ReminderService{
		productRepo: productRepo,
		publisher:   publisher,
		leadDays:    leadDays,
		logger:      log,
		now:         time.Now,
		sessions:    make(map[string]*expiry.SessionState),
	}
}

// sessionFor returns the caller's session state, creating it on first use.
// Each user's state is fully isolated; the mutex covers the map and the
// per-user state, since CheckReminder mutates it.
func (s *ReminderService) sessionFor(userID string) *expiry.SessionState {
	state, ok := s.sessions[userID]
	if !ok {
		state = expiry.NewSessionState()
		s.sessions[userID] = state
	}
	return state
}

// DueReminders scans the caller's products and returns the reminders that
// fired on this evaluation. Products already notified this session are
// skipped. Each fired reminder is also published as an event.
func (s *ReminderService) DueReminders(ctx context.Context) ([]*expiry.Reminder, error) {
	userID, err := userctx.UserID(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.productRepo.GetAllActive(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()

	s.mu.Lock()
	state := s.sessionFor(userID)

	reminders := make([]*expiry.Reminder, 0)
	for _, p := range products {
		if r := expiry.CheckReminder(state, p.ID, p.Name, p.ExpiryDate, now, s.leadDays); r != nil {
			reminders = append(reminders, r)
		}
	}
	s.mu.Unlock()

	for _, r := range reminders {
		s.publisher.PublishReminderDue(ctx, userID, r)
		s.logger.Info().
			Str("product_id", r.ProductID).
			Int("days_remaining", r.DaysRemaining).
			Msg("reminder due")
	}

	return reminders, nil
}

// ResetSession clears the caller's notification state. Eligible products
// will remind again on the next evaluation.
func (s *ReminderService) ResetSession(ctx context.Context) error {
	userID, err := userctx.UserID(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()

	return nil
}
