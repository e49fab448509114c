package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moneta/internal/amqp"
	"moneta/internal/core"
)

// ReminderStore is the storage surface the reminder sweep needs
type ReminderStore interface {
	DueEvents(ctx context.Context, today core.Date, timeOfDay string) ([]core.Event, error)
}

// EventReminder sweeps calendar events scheduled for the current minute and
// queues a reminder notification per match. Unlike the transaction sweep
// there is nothing to claim or advance: the event row never changes, and a
// duplicate reminder is harmless.
type EventReminder struct {
	store     ReminderStore
	publisher NotificationPublisher
	location  *time.Location
	now       func() time.Time
}

// NewEventReminder creates a reminder sweeper. The publisher may be nil, in
// which case the sweep is a no-op.
func NewEventReminder(store ReminderStore, publisher NotificationPublisher, location *time.Location) *EventReminder {
	if location == nil {
		location = time.UTC
	}
	return &EventReminder{
		store:     store,
		publisher: publisher,
		location:  location,
		now:       time.Now,
	}
}

// RemindDue queues one reminder per event that lands on today at the current
// minute in the reference timezone. Returns the number of reminders queued.
func (r *EventReminder) RemindDue(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, fmt.Errorf("reminder not properly initialized")
	}
	if r.publisher == nil {
		return 0, nil
	}

	now := r.now().In(r.location)
	today := core.DateOf(now)
	minute := now.Format("15:04")

	candidates, err := r.store.DueEvents(ctx, today, minute)
	if err != nil {
		return 0, fmt.Errorf("query due events: %w", err)
	}

	reminded := 0
	for _, e := range candidates {
		// One-off candidates already matched on date in the query; recurring
		// ones need the occurrence check against their anchor.
		if e.Period != "" && !core.OccursOn(e.Date, e.Period, today) {
			continue
		}

		msg := amqp.NewEventReminderMessage(e.UserID, e.ID)
		if err := r.publisher.PublishNotification(ctx, msg); err != nil {
			slog.WarnContext(ctx, "Failed to publish event reminder",
				"event_id", e.ID,
				"error", err)
			continue
		}
		reminded++
	}

	if reminded > 0 {
		slog.InfoContext(ctx, "Event reminders queued",
			"reminded", reminded,
			"candidates", len(candidates))
	}

	return reminded, nil
}
