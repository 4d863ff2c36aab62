package expiry

import "time"

// SessionState tracks which products have already triggered a reminder in
// the current session. Reminders are at-most-once per session: when the
// session ends the state is discarded and a still-eligible product may
// remind again next session.
//
// SessionState is not safe for concurrent use; callers holding one per
// user session must synchronize externally.
type SessionState struct {
	notified map[string]struct{}
}

// NewSessionState returns an empty session state.
func NewSessionState() *SessionState {
	return &SessionState{notified: make(map[string]struct{})}
}

// Contains reports whether the product has already been notified.
func (s *SessionState) Contains(productID string) bool {
	_, ok := s.notified[productID]
	return ok
}

// MarkNotified records that the product has been notified. Re-adding an
// existing ID is a no-op.
func (s *SessionState) MarkNotified(productID string) {
	s.notified[productID] = struct{}{}
}

// Len returns the number of products notified this session.
func (s *SessionState) Len() int {
	return len(s.notified)
}

// Reminder is the event emitted when a product enters its notification
// window.
type Reminder struct {
	ProductID     string
	ProductName   string
	DaysRemaining int
}

// CheckReminder evaluates reminder eligibility for a single product and
// fires at most once per session. A reminder fires when the product is not
// yet expired, is within leadDays of its expiry date, and has not already
// been notified this session. On firing, the product is recorded in state
// and the reminder returned; otherwise nil.
//
// A fully expired product (zero days remaining) does not fire here — it is
// surfaced through the needs-replacement path instead.
func CheckReminder(state *SessionState, productID, productName string, expiryDate, now time.Time, leadDays int) *Reminder {
	days := DaysRemaining(expiryDate, now)
	if days == 0 || days > leadDays {
		return nil
	}
	if state.Contains(productID) {
		return nil
	}

	state.MarkNotified(productID)
	return &Reminder{
		ProductID:     productID,
		ProductName:   productName,
		DaysRemaining: days,
	}
}
