package services

import (
	"context"
	"testing"
	"time"

	"moneta/internal/amqp"
	"moneta/internal/core"
)

type fakeReminderStore struct {
	events []core.Event
}

func (f *fakeReminderStore) DueEvents(_ context.Context, today core.Date, timeOfDay string) ([]core.Event, error) {
	var out []core.Event
	for _, e := range f.events {
		if e.TimeOfDay != timeOfDay {
			continue
		}
		if e.Period == "" && !e.Date.Equal(today.Time) {
			continue
		}
		if e.Period != "" && e.Date.After(today.Time) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func reminderAt(store *fakeReminderStore, pub *fakePublisher, at time.Time) *EventReminder {
	r := NewEventReminder(store, pub, time.UTC)
	r.now = func() time.Time { return at }
	return r
}

func TestRemindDueOneOffEvent(t *testing.T) {
	store := &fakeReminderStore{events: []core.Event{
		{ID: 1, UserID: "u1", Title: "Dentist", Date: core.NewDate(2026, 3, 10), TimeOfDay: "09:00"},
	}}
	pub := &fakePublisher{}
	r := reminderAt(store, pub, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	n, err := r.RemindDue(context.Background())
	if err != nil {
		t.Fatalf("RemindDue: %v", err)
	}
	if n != 1 {
		t.Fatalf("reminded = %d, want 1", n)
	}
	if len(pub.published) != 1 || pub.published[0].Kind != amqp.KindEventReminder {
		t.Fatalf("published = %+v, want one event_reminder", pub.published)
	}
	if pub.published[0].EventID != 1 {
		t.Errorf("event id = %d, want 1", pub.published[0].EventID)
	}
}

func TestRemindDueSkipsOffScheduleRecurring(t *testing.T) {
	// Weekly event anchored on a Tuesday; the sweep runs on a Wednesday.
	store := &fakeReminderStore{events: []core.Event{
		{ID: 2, UserID: "u1", Title: "Standup", Date: core.NewDate(2026, 3, 3), TimeOfDay: "09:00", Period: core.Weekly},
	}}
	pub := &fakePublisher{}
	r := reminderAt(store, pub, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC))

	n, err := r.RemindDue(context.Background())
	if err != nil {
		t.Fatalf("RemindDue: %v", err)
	}
	if n != 0 || len(pub.published) != 0 {
		t.Fatalf("reminded = %d, published = %d, want none", n, len(pub.published))
	}

	// One week after the anchor it fires.
	r = reminderAt(store, pub, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	n, err = r.RemindDue(context.Background())
	if err != nil {
		t.Fatalf("RemindDue: %v", err)
	}
	if n != 1 {
		t.Errorf("reminded = %d, want 1", n)
	}
}

func TestRemindDueWithoutPublisher(t *testing.T) {
	store := &fakeReminderStore{events: []core.Event{
		{ID: 3, UserID: "u1", Title: "Dentist", Date: core.NewDate(2026, 3, 10), TimeOfDay: "09:00"},
	}}
	r := NewEventReminder(store, nil, time.UTC)
	r.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }

	n, err := r.RemindDue(context.Background())
	if err != nil {
		t.Fatalf("RemindDue: %v", err)
	}
	if n != 0 {
		t.Errorf("reminded = %d, want 0 with no queue configured", n)
	}
}
