package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"rvm-status-backend/internal/notification"
	"rvm-status-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	webpush  *webpush.Options
	notifier *notification.WorkerPool
}

// NewHandler creates a new API handler. notifier may be nil when push
// notifications are disabled.
func NewHandler(s store.Store, webpushOptions *webpush.Options, notifier *notification.WorkerPool) *Handler {
	return &Handler{
		store:    s,
		webpush:  webpushOptions,
		notifier: notifier,
	}
}

// notify dispatches a notification job when the notifier is configured.
func (h *Handler) notify(job notification.Job) {
	if h.notifier != nil {
		h.notifier.Dispatch(job)
	}
}
