package repository

import (
	"context"

	"CoinSentry/internal/domain/models"
	drepo "CoinSentry/internal/domain/repository"
	xlogger "CoinSentry/pkg/logger"
)

// NotifierManager fans one event out to every enabled notifier.
type NotifierManager struct {
	notifiers []drepo.Notifier
	log       *xlogger.Logger
}

// NewNotifierManager creates a manager over the given notifiers.
func NewNotifierManager(log *xlogger.Logger, notifiers ...drepo.Notifier) *NotifierManager {
	return &NotifierManager{notifiers: notifiers, log: log}
}

// Add registers another notifier.
func (m *NotifierManager) Add(n drepo.Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Deliver sends the event to all enabled notifiers. One failing
// channel does not stop the others; the last error is returned so the
// queue can retry the whole batch.
func (m *NotifierManager) Deliver(ctx context.Context, ev *models.NotificationEvent) error {
	var lastErr error
	for _, n := range m.notifiers {
		if !n.IsEnabled() {
			continue
		}
		if err := n.Send(ctx, ev); err != nil {
			m.log.Error("notifier send failed",
				xlogger.String("notifier", n.Name()),
				xlogger.String("owner", ev.OwnerID),
				xlogger.Error(err))
			lastErr = err
		}
	}
	return lastErr
}
