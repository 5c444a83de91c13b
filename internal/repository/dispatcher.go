package repository

import (
	"context"
	"fmt"

	"CoinSentry/internal/domain/models"
	drepo "CoinSentry/internal/domain/repository"
	xlogger "CoinSentry/pkg/logger"
	"CoinSentry/pkg/queue"
)

// NotificationEventType is the queue message type for signal batches.
const NotificationEventType = "notification.event"

// EventDispatcher routes emitted events: optionally mirrors them to a
// Kafka topic, then hands delivery to the Redis queue, or straight to
// the notifier manager when no queue is configured.
type EventDispatcher struct {
	queue     queue.QueueService
	manager   *NotifierManager
	publisher drepo.EventPublisher
	log       *xlogger.Logger
}

// NewEventDispatcher creates a dispatcher. q and publisher may be nil.
func NewEventDispatcher(q queue.QueueService, manager *NotifierManager, publisher drepo.EventPublisher, log *xlogger.Logger) *EventDispatcher {
	return &EventDispatcher{queue: q, manager: manager, publisher: publisher, log: log}
}

// Dispatch publishes and enqueues one event. Kafka publish failures
// are logged, not propagated; the user-facing delivery path decides
// the call's outcome.
func (d *EventDispatcher) Dispatch(ctx context.Context, ev *models.NotificationEvent) error {
	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, ev); err != nil {
			d.log.Error("kafka event publish failed",
				xlogger.String("position", ev.Position.ID),
				xlogger.Error(err))
		}
	}

	if d.queue != nil {
		if err := d.queue.PublishMessage(ctx, NotificationEventType, ev); err != nil {
			return fmt.Errorf("enqueue notification: %w", err)
		}
		return nil
	}

	if d.manager != nil {
		return d.manager.Deliver(ctx, ev)
	}
	return nil
}

// DispatchJob is the queue worker side: it re-parses the payload and
// pushes it through the notifier manager.
type DispatchJob struct {
	manager *NotifierManager
}

// NewDispatchJob creates the notification dispatch job.
func NewDispatchJob(manager *NotifierManager) *DispatchJob {
	return &DispatchJob{manager: manager}
}

func (j *DispatchJob) Name() string { return "notification-dispatch" }

func (j *DispatchJob) Type() string { return NotificationEventType }

func (j *DispatchJob) Handle(ctx context.Context, payload interface{}) error {
	ev, err := queue.ParsePayload[models.NotificationEvent](payload)
	if err != nil {
		return fmt.Errorf("parse notification payload: %w", err)
	}
	return j.manager.Deliver(ctx, ev)
}

var _ queue.Job = (*DispatchJob)(nil)
