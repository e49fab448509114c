package worker

import (
	"context"
	"fmt"
	"log/slog"

	"moneta/internal/amqp"
	"moneta/internal/core"
	"moneta/internal/mail"
)

// NotifyStore is the storage surface the worker reads from
type NotifyStore interface {
	GetUserByID(ctx context.Context, id string) (core.User, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	GetCategory(ctx context.Context, kind core.TransactionType, id int64, userID string) (core.Category, error)
	GetEvent(ctx context.Context, id int64, userID string) (core.Event, error)
}

// NotifyWorker turns queued notification messages into emails. It loads
// current state by ID before composing, so stale queue entries never leak
// outdated amounts.
type NotifyWorker struct {
	store   NotifyStore
	mailer  mail.Sender
	baseURL string
}

func NewNotifyWorker(store NotifyStore, mailer mail.Sender, baseURL string) *NotifyWorker {
	return &NotifyWorker{
		store:   store,
		mailer:  mailer,
		baseURL: baseURL,
	}
}

// HandleMessage processes a single notification message from the queue
func (w *NotifyWorker) HandleMessage(ctx context.Context, msg *amqp.NotificationMessage) error {
	slog.InfoContext(ctx, "Processing notification message",
		"kind", msg.Kind,
		"user_id", msg.UserID)

	user, err := w.store.GetUserByID(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("get user for notification: %w", err)
	}

	var email mail.Message
	switch msg.Kind {
	case amqp.KindTransactionCreated:
		email, err = w.transactionEmail(ctx, user, msg.TransactionID)
		if err != nil {
			return err
		}
	case amqp.KindVerifyEmail:
		email = w.verifyEmail(user, msg.Token)
	case amqp.KindResetPassword:
		email = w.resetEmail(user, msg.Token)
	case amqp.KindEventReminder:
		email, err = w.eventEmail(ctx, user, msg.EventID)
		if err != nil {
			return err
		}
	default:
		// Unknown kinds are dropped rather than requeued forever
		slog.WarnContext(ctx, "Unknown notification kind, dropping",
			"kind", msg.Kind)
		return nil
	}

	if err := w.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("send %s email: %w", msg.Kind, err)
	}

	slog.InfoContext(ctx, "Notification email sent",
		"kind", msg.Kind,
		"user_id", user.ID)

	return nil
}

func (w *NotifyWorker) transactionEmail(ctx context.Context, user core.User, txID int64) (mail.Message, error) {
	tx, err := w.store.GetTransaction(ctx, txID)
	if err != nil {
		return mail.Message{}, fmt.Errorf("get transaction for notification: %w", err)
	}

	// A category deleted between materialization and delivery must not keep
	// the message requeued forever.
	categoryName := "uncategorized"
	if category, err := w.store.GetCategory(ctx, tx.Type, tx.CategoryID, tx.UserID); err != nil {
		slog.WarnContext(ctx, "Category lookup failed for notification",
			"transaction_id", tx.ID,
			"category_id", tx.CategoryID,
			"error", err)
	} else {
		categoryName = category.Name
	}

	return mail.Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Recurring %s recorded: %s", tx.Type, tx.Name),
		Body: fmt.Sprintf(
			"Hi %s,\n\nA scheduled %s was recorded on %s:\n\n  %s (%s)  %s\n\nYou can review it in your transaction history.\n",
			user.Name, tx.Type, tx.Date.Format("2006-01-02"),
			tx.Name, categoryName, core.FormatSigned(tx.Amount, tx.Type)),
	}, nil
}

func (w *NotifyWorker) eventEmail(ctx context.Context, user core.User, eventID int64) (mail.Message, error) {
	event, err := w.store.GetEvent(ctx, eventID, user.ID)
	if err != nil {
		return mail.Message{}, fmt.Errorf("get event for reminder: %w", err)
	}

	body := fmt.Sprintf("Hi %s,\n\nReminder: %s", user.Name, event.Title)
	if event.TimeOfDay != "" {
		body += fmt.Sprintf(" at %s", event.TimeOfDay)
	}
	if event.Note != "" {
		body += "\n\n" + event.Note
	}
	body += "\n"

	return mail.Message{
		To:      user.Email,
		Subject: "Reminder: " + event.Title,
		Body:    body,
	}, nil
}

func (w *NotifyWorker) verifyEmail(user core.User, token string) mail.Message {
	return mail.Message{
		To:      user.Email,
		Subject: "Verify your email address",
		Body: fmt.Sprintf(
			"Hi %s,\n\nPlease confirm your email address by opening this link:\n\n  %s/verify?token=%s\n\nThe link expires in 24 hours.\n",
			user.Name, w.baseURL, token),
	}
}

func (w *NotifyWorker) resetEmail(user core.User, token string) mail.Message {
	return mail.Message{
		To:      user.Email,
		Subject: "Reset your password",
		Body: fmt.Sprintf(
			"Hi %s,\n\nA password reset was requested for your account. Open this link to choose a new password:\n\n  %s/reset?token=%s\n\nThe link expires in 1 hour. If you did not request this, ignore this email.\n",
			user.Name, w.baseURL, token),
	}
}
