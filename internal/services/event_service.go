package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teambition/rrule-go"

	"moneta/internal/core"
)

// ErrInvalidWindow rejects occurrence queries whose end precedes their start.
var ErrInvalidWindow = errors.New("window end before start")

// EventStore is the storage surface for calendar events
type EventStore interface {
	CreateEvent(ctx context.Context, e core.Event) (core.Event, error)
	ListEvents(ctx context.Context, userID string) ([]core.Event, error)
	GetEvent(ctx context.Context, id int64, userID string) (core.Event, error)
	UpdateEvent(ctx context.Context, e core.Event) error
	DeleteEvent(ctx context.Context, id int64, userID string) error
}

// Occurrence is one calendar day an event lands on, either its stored date
// or a recurrence expansion of it
type Occurrence struct {
	Event core.Event
	Date  core.Date
}

// EventService manages calendar entries and expands recurring ones into
// concrete dates for a requested window.
type EventService struct {
	store    EventStore
	location *time.Location
}

func NewEventService(store EventStore, location *time.Location) *EventService {
	if location == nil {
		location = time.UTC
	}
	return &EventService{store: store, location: location}
}

// Add validates and stores an event
func (s *EventService) Add(ctx context.Context, e core.Event) (core.Event, error) {
	if err := e.Validate(); err != nil {
		return core.Event{}, fmt.Errorf("validation failed: %w", err)
	}

	created, err := s.store.CreateEvent(ctx, e)
	if err != nil {
		return core.Event{}, err
	}

	slog.InfoContext(ctx, "Event created",
		"event_id", created.ID,
		"user_id", created.UserID,
		"title", created.Title,
		"period", created.Period)

	return created, nil
}

// List returns the user's stored events, soonest first
func (s *EventService) List(ctx context.Context, userID string) ([]core.Event, error) {
	return s.store.ListEvents(ctx, userID)
}

// Update replaces an event the user owns
func (s *EventService) Update(ctx context.Context, e core.Event) error {
	if e.ID <= 0 {
		return core.ErrNotFound
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := s.store.UpdateEvent(ctx, e); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Event updated",
		"event_id", e.ID,
		"user_id", e.UserID)

	return nil
}

// Remove deletes an event the user owns
func (s *EventService) Remove(ctx context.Context, id int64, userID string) error {
	if err := s.store.DeleteEvent(ctx, id, userID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Event removed",
		"event_id", id,
		"user_id", userID)

	return nil
}

// Upcoming expands the user's events into concrete occurrences inside
// [from, until]. One-off events contribute at most one occurrence; recurring
// events are expanded with their recurrence rule.
func (s *EventService) Upcoming(ctx context.Context, userID string, from, until core.Date) ([]Occurrence, error) {
	if until.Before(from.Time) {
		return nil, ErrInvalidWindow
	}

	events, err := s.store.ListEvents(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out []Occurrence
	for _, e := range events {
		if e.Period == "" {
			if !e.Date.Before(from.Time) && !e.Date.After(until.Time) {
				out = append(out, Occurrence{Event: e, Date: e.Date})
			}
			continue
		}

		dates, err := s.expand(e, from, until)
		if err != nil {
			slog.WarnContext(ctx, "Failed to expand recurring event",
				"event_id", e.ID,
				"period", e.Period,
				"error", err)
			continue
		}
		for _, d := range dates {
			out = append(out, Occurrence{Event: e, Date: d})
		}
	}

	return out, nil
}

// periodFreq maps a recurring period to its recurrence rule frequency
func periodFreq(p core.RecurringPeriod) (rrule.Frequency, error) {
	switch p {
	case core.Daily:
		return rrule.DAILY, nil
	case core.Weekly:
		return rrule.WEEKLY, nil
	case core.Monthly:
		return rrule.MONTHLY, nil
	case core.Yearly:
		return rrule.YEARLY, nil
	}
	return 0, fmt.Errorf("unknown recurring period: %s", p)
}

func (s *EventService) expand(e core.Event, from, until core.Date) ([]core.Date, error) {
	freq, err := periodFreq(e.Period)
	if err != nil {
		return nil, err
	}

	start := time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, s.location)
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    freq,
		Dtstart: start,
	})
	if err != nil {
		return nil, fmt.Errorf("build recurrence rule: %w", err)
	}

	lo := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, s.location)
	hi := time.Date(until.Year(), until.Month(), until.Day(), 23, 59, 59, 0, s.location)

	times := rule.Between(lo, hi, true)
	dates := make([]core.Date, len(times))
	for i, t := range times {
		dates[i] = core.DateOf(t)
	}
	return dates, nil
}
