package amqp

import (
	"encoding/json"
	"time"
)

// Notification kinds routed through the queue
const (
	KindTransactionCreated = "transaction_created"
	KindVerifyEmail        = "verify_email"
	KindResetPassword      = "reset_password"
	KindEventReminder      = "event_reminder"
)

// NotificationMessage is a lightweight queue message. It carries IDs only;
// the worker fetches current state from the database before sending anything.
type NotificationMessage struct {
	Kind          string    `json:"kind"`
	UserID        string    `json:"user_id"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	EventID       int64     `json:"event_id,omitempty"`
	Token         string    `json:"token,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionCreatedMessage announces a transaction materialized by the
// recurring scheduler
func NewTransactionCreatedMessage(userID string, transactionID int64) *NotificationMessage {
	return &NotificationMessage{
		Kind:          KindTransactionCreated,
		UserID:        userID,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// NewVerifyEmailMessage carries a fresh email verification token
func NewVerifyEmailMessage(userID, token string) *NotificationMessage {
	return &NotificationMessage{
		Kind:      KindVerifyEmail,
		UserID:    userID,
		Token:     token,
		Timestamp: time.Now(),
	}
}

// NewResetPasswordMessage carries a fresh password reset token
func NewResetPasswordMessage(userID, token string) *NotificationMessage {
	return &NotificationMessage{
		Kind:      KindResetPassword,
		UserID:    userID,
		Token:     token,
		Timestamp: time.Now(),
	}
}

// NewEventReminderMessage announces a calendar event due today
func NewEventReminderMessage(userID string, eventID int64) *NotificationMessage {
	return &NotificationMessage{
		Kind:      KindEventReminder,
		UserID:    userID,
		EventID:   eventID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON creates a message from JSON bytes
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
