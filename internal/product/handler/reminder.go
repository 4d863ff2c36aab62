package handler

import (
	"net/http"

	"github.com/bathtrack/bathtrack-backend/internal/product/service"
	"github.com/bathtrack/bathtrack-backend/pkg/httputil"
	"github.com/bathtrack/bathtrack-backend/pkg/logger"
)

// ReminderHandler handles reminder endpoints
type ReminderHandler struct {
	service *service.ReminderService
	logger  *logger.Logger
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(svc *service.ReminderService, log *logger.Logger) *ReminderHandler {
	return &ReminderHandler{
		service: svc,
		logger:  log,
	}
}

// Due returns the reminders that fired on this evaluation. A product only
// appears once per session: polling again returns it no more.
func (h *ReminderHandler) Due(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.service.DueReminders(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, reminders)
}

// ResetSession clears the caller's notification state so eligible products
// remind again.
func (h *ReminderHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetSession(r.Context()); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
