package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

const (
	Daily   RecurringPeriod = "daily"
	Weekly  RecurringPeriod = "weekly"
	Monthly RecurringPeriod = "monthly"
	Yearly  RecurringPeriod = "yearly"
)

type (
	TransactionType string

	RecurringPeriod string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Category is a labeled bucket for transactions. Built-in defaults have
	// an empty UserID; user-defined categories belong to their creator.
	Category struct {
		ID      int64
		UserID  string
		Kind    TransactionType
		Name    string
		Icon    string
		Default bool
	}

	// Recurrence holds the scheduling fields of a recurring template.
	// The three fields are all-or-nothing: a transaction either carries a
	// full Recurrence or none at all.
	Recurrence struct {
		Period        RecurringPeriod
		TimeOfDay     string // "HH:mm" in the reference timezone
		NextExecution Date   // midnight-truncated
	}

	Transaction struct {
		ID          int64
		UserID      string
		Type        TransactionType
		CategoryID  int64
		Name        string
		Description string
		Amount      Money
		Date        Date
		Recurrence  *Recurrence // nil for plain historical records
		CreatedAt   time.Time
	}

	// Event is a calendar entry, independent of financial transactions.
	Event struct {
		ID        int64
		UserID    string
		Title     string
		Note      string
		Date      Date
		TimeOfDay string          // optional "HH:mm"
		Period    RecurringPeriod // empty for one-off events
		CreatedAt time.Time
	}

	User struct {
		ID           string
		Email        string
		PasswordHash string
		Name         string
		Admin        bool
		Verified     bool
		CreatedAt    time.Time
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidPeriod    = errors.New("invalid recurring period")
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyTitle       = errors.New("empty title")
	ErrEmptyCategory    = errors.New("empty category")
	ErrNotFound         = errors.New("not found")
)

func (t TransactionType) Valid() bool {
	return t == Expense || t == Income
}

func (p RecurringPeriod) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a midnight-truncated Date in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to midnight, preserving its location.
func DateOf(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())}
}

// IsEmpty reports whether the date is unset (optional dates).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Signed returns the amount with the sign implied by the transaction type:
// negative for expenses, positive for income. The stored amount itself is
// always non-negative.
func (m Money) Signed(t TransactionType) int64 {
	if t == Expense {
		return -m.Cents
	}
	return m.Cents
}

// ValidTimeOfDay reports whether s is a well-formed "HH:mm" clock value.
func ValidTimeOfDay(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

func (r *Recurrence) Validate() error {
	if !r.Period.Valid() {
		return ErrInvalidPeriod
	}
	if !ValidTimeOfDay(r.TimeOfDay) {
		return ErrInvalidTimeOfDay
	}
	if err := r.NextExecution.Validate(); err != nil {
		return errors.New("invalid next execution date: " + err.Error())
	}
	return nil
}

// IsRecurring reports whether the transaction is a live recurring template.
// Materialized copies produced by the scheduler are never recurring.
func (t Transaction) IsRecurring() bool {
	return t.Recurrence != nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if len(strings.TrimSpace(t.Name)) == 0 {
		return ErrEmptyName
	}
	if len(t.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.CategoryID <= 0 {
		return ErrEmptyCategory
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Recurrence != nil {
		if err := t.Recurrence.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (e Event) Validate() error {
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.TimeOfDay != "" && !ValidTimeOfDay(e.TimeOfDay) {
		return ErrInvalidTimeOfDay
	}
	if e.Period != "" && !e.Period.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}

func (c Category) Validate() error {
	if !c.Kind.Valid() {
		return ErrInvalidType
	}
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return nil
}
