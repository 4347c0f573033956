// Package notification carries workflow events to their recipients. The
// engine only ever talks to the Dispatcher contract; delivery happens
// elsewhere (the notifier worker) and is always best effort.
package notification

import (
	"context"
	"log/slog"

	"github.com/anilrana004/Workline/pkg/eventbus"
)

// Dispatcher hands a workflow event off for delivery. Implementations must
// not block on delivery; the engine treats errors as log-and-continue.
type Dispatcher interface {
	Dispatch(ctx context.Context, key string, event eventbus.Event) error
}

// EventBusDispatcher publishes events on the workflow event bus.
type EventBusDispatcher struct {
	publisher eventbus.EventPublisher
	logger    *slog.Logger
}

func NewEventBusDispatcher(publisher eventbus.EventPublisher, logger *slog.Logger) *EventBusDispatcher {
	return &EventBusDispatcher{
		publisher: publisher,
		logger:    logger.With("module", "notification_dispatcher"),
	}
}

func (d *EventBusDispatcher) Dispatch(ctx context.Context, key string, event eventbus.Event) error {
	err := d.publisher.Publish(ctx, key, event)
	if err != nil {
		d.logger.ErrorContext(ctx, "Failed to publish notification event",
			"event_type", string(event.GetType()), "key", key, "error", err)

		return err
	}

	return nil
}

// NopDispatcher discards events. Used where notifications are disabled.
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(_ context.Context, _ string, _ eventbus.Event) error {
	return nil
}
