package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moneta/internal/amqp"
	"moneta/internal/core"
)

// RecurringStore is the storage surface the processor needs
type RecurringStore interface {
	DueRecurring(ctx context.Context, today core.Date, timeOfDay string) ([]core.Transaction, error)
	ClaimRecurring(ctx context.Context, id int64, oldNext, newNext core.Date) (bool, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
}

// NotificationPublisher pushes messages onto the notification queue
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, msg *amqp.NotificationMessage) error
}

// RecurringProcessor materializes transactions from recurring templates.
// Safe to run from multiple instances concurrently: each template is claimed
// by a conditional update before anything is inserted, so a template fires
// exactly once per scheduled date.
type RecurringProcessor struct {
	store     RecurringStore
	publisher NotificationPublisher
	location  *time.Location
	now       func() time.Time
}

// NewRecurringProcessor creates a processor. The publisher may be nil, in
// which case no notifications are sent.
func NewRecurringProcessor(store RecurringStore, publisher NotificationPublisher, location *time.Location) *RecurringProcessor {
	if location == nil {
		location = time.UTC
	}
	return &RecurringProcessor{
		store:     store,
		publisher: publisher,
		location:  location,
		now:       time.Now,
	}
}

// ProcessDue finds recurring templates whose date has arrived and whose
// scheduled minute matches the current minute in the reference timezone,
// then materializes one transaction per claimed template. It returns the
// number of templates claimed by this run.
func (p *RecurringProcessor) ProcessDue(ctx context.Context) (int, error) {
	if p.store == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	now := p.now().In(p.location)
	today := core.DateOf(now)
	minute := now.Format("15:04")

	due, err := p.store.DueRecurring(ctx, today, minute)
	if err != nil {
		return 0, fmt.Errorf("get due recurring templates: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring templates",
		"due", len(due),
		"processing_date", today.Format("2006-01-02"),
		"minute", minute)

	processedCount := 0

	for _, template := range due {
		if template.Recurrence == nil {
			slog.WarnContext(ctx, "Due template has no recurrence, skipping",
				"id", template.ID)
			continue
		}

		next, err := core.NextAfter(template.Recurrence.NextExecution, template.Recurrence.Period)
		if err != nil {
			slog.ErrorContext(ctx, "Cannot advance template",
				"id", template.ID,
				"period", template.Recurrence.Period,
				"error", err)
			continue
		}

		// Claim before inserting. A failed claim means another run took it.
		claimed, err := p.store.ClaimRecurring(ctx, template.ID, template.Recurrence.NextExecution, next)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to claim template",
				"id", template.ID,
				"error", err)
			continue
		}
		if !claimed {
			slog.InfoContext(ctx, "Template already claimed by a concurrent run",
				"id", template.ID)
			continue
		}

		processedCount++

		materialized := core.Transaction{
			UserID:      template.UserID,
			Type:        template.Type,
			CategoryID:  template.CategoryID,
			Name:        template.Name,
			Description: template.Description,
			Amount:      template.Amount,
			Date:        today,
		}

		created, err := p.store.CreateTransaction(ctx, materialized)
		if err != nil {
			// The claim already advanced the schedule, so this occurrence is
			// lost rather than risking a double fire. Surface it loudly.
			slog.ErrorContext(ctx, "Failed to materialize claimed template",
				"template_id", template.ID,
				"name", template.Name,
				"error", err)
			continue
		}

		slog.InfoContext(ctx, "Materialized transaction from recurring template",
			"template_id", template.ID,
			"transaction_id", created.ID,
			"name", created.Name,
			"amount_cents", created.Amount.Cents,
			"period", template.Recurrence.Period,
			"next_execution_date", next.Format("2006-01-02"))

		p.notify(ctx, created)
	}

	slog.InfoContext(ctx, "Recurring template processing complete",
		"processed", processedCount,
		"total_due", len(due))

	return processedCount, nil
}

// notify publishes a best-effort notification. Failures are logged and
// never affect the materialized transaction.
func (p *RecurringProcessor) notify(ctx context.Context, created core.Transaction) {
	if p.publisher == nil {
		return
	}
	msg := amqp.NewTransactionCreatedMessage(created.UserID, created.ID)
	if err := p.publisher.PublishNotification(ctx, msg); err != nil {
		slog.WarnContext(ctx, "Failed to publish notification",
			"transaction_id", created.ID,
			"error", err)
	}
}
