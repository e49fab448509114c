package services

import (
	"context"
	"testing"
	"time"

	"moneta/internal/core"
)

type fakeEventStore struct {
	events []core.Event
	nextID int64
}

func (s *fakeEventStore) CreateEvent(_ context.Context, e core.Event) (core.Event, error) {
	s.nextID++
	e.ID = s.nextID
	s.events = append(s.events, e)
	return e, nil
}

func (s *fakeEventStore) ListEvents(_ context.Context, userID string) ([]core.Event, error) {
	var out []core.Event
	for _, e := range s.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeEventStore) GetEvent(_ context.Context, id int64, userID string) (core.Event, error) {
	for _, e := range s.events {
		if e.ID == id && e.UserID == userID {
			return e, nil
		}
	}
	return core.Event{}, core.ErrNotFound
}

func (s *fakeEventStore) UpdateEvent(_ context.Context, e core.Event) error {
	for i, stored := range s.events {
		if stored.ID == e.ID && stored.UserID == e.UserID {
			s.events[i] = e
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *fakeEventStore) DeleteEvent(_ context.Context, id int64, userID string) error {
	for i, e := range s.events {
		if e.ID == id && e.UserID == userID {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func TestEventService_AddRejectsInvalid(t *testing.T) {
	s := NewEventService(&fakeEventStore{}, time.UTC)

	_, err := s.Add(context.Background(), core.Event{
		UserID: "u1",
		Title:  "   ",
		Date:   core.NewDate(2026, 4, 1),
	})
	if err == nil {
		t.Error("expected validation error for blank title")
	}
}

func TestUpcoming_OneOffInsideWindow(t *testing.T) {
	store := &fakeEventStore{}
	s := NewEventService(store, time.UTC)
	ctx := context.Background()

	if _, err := s.Add(ctx, core.Event{UserID: "u1", Title: "Dentist", Date: core.NewDate(2026, 4, 10)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.Add(ctx, core.Event{UserID: "u1", Title: "Old", Date: core.NewDate(2026, 1, 1)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	occ, err := s.Upcoming(ctx, "u1", core.NewDate(2026, 4, 1), core.NewDate(2026, 4, 30))
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(occ) != 1 || occ[0].Event.Title != "Dentist" {
		t.Fatalf("expected only the dentist event, got %d occurrences", len(occ))
	}
}

func TestUpcoming_ExpandsWeekly(t *testing.T) {
	store := &fakeEventStore{}
	s := NewEventService(store, time.UTC)
	ctx := context.Background()

	_, err := s.Add(ctx, core.Event{
		UserID: "u1",
		Title:  "Gym",
		Date:   core.NewDate(2026, 4, 6), // a Monday
		Period: core.Weekly,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	occ, err := s.Upcoming(ctx, "u1", core.NewDate(2026, 4, 1), core.NewDate(2026, 4, 30))
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}

	// Mondays in the window: Apr 6, 13, 20, 27
	if len(occ) != 4 {
		t.Fatalf("expected 4 weekly occurrences, got %d", len(occ))
	}
	want := []core.Date{
		core.NewDate(2026, 4, 6),
		core.NewDate(2026, 4, 13),
		core.NewDate(2026, 4, 20),
		core.NewDate(2026, 4, 27),
	}
	for i, w := range want {
		if !occ[i].Date.Equal(w.Time) {
			t.Errorf("occurrence %d: expected %s, got %s", i, w.Format("2006-01-02"), occ[i].Date.Format("2006-01-02"))
		}
	}
}

func TestUpcoming_MonthlyStartsFromStoredDate(t *testing.T) {
	store := &fakeEventStore{}
	s := NewEventService(store, time.UTC)
	ctx := context.Background()

	_, err := s.Add(ctx, core.Event{
		UserID: "u1",
		Title:  "Rent due",
		Date:   core.NewDate(2026, 1, 15),
		Period: core.Monthly,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	occ, err := s.Upcoming(ctx, "u1", core.NewDate(2026, 3, 1), core.NewDate(2026, 4, 30))
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(occ) != 2 {
		t.Fatalf("expected 2 monthly occurrences, got %d", len(occ))
	}
	if !occ[0].Date.Equal(core.NewDate(2026, 3, 15).Time) || !occ[1].Date.Equal(core.NewDate(2026, 4, 15).Time) {
		t.Errorf("unexpected dates: %s, %s",
			occ[0].Date.Format("2006-01-02"), occ[1].Date.Format("2006-01-02"))
	}
}

func TestUpcoming_RejectsInvertedWindow(t *testing.T) {
	s := NewEventService(&fakeEventStore{}, time.UTC)
	_, err := s.Upcoming(context.Background(), "u1", core.NewDate(2026, 5, 1), core.NewDate(2026, 4, 1))
	if err == nil {
		t.Error("expected error for inverted window")
	}
}

func TestEventService_Update(t *testing.T) {
	store := &fakeEventStore{}
	s := NewEventService(store, time.UTC)
	ctx := context.Background()

	created, err := s.Add(ctx, core.Event{UserID: "u1", Title: "Dentist", Date: core.NewDate(2026, 4, 10)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	created.Title = "Dentist (moved)"
	created.Date = core.NewDate(2026, 4, 17)
	if err := s.Update(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.GetEvent(ctx, created.ID, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Dentist (moved)" || !got.Date.Equal(core.NewDate(2026, 4, 17).Time) {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestEventService_UpdateWrongOwner(t *testing.T) {
	store := &fakeEventStore{}
	s := NewEventService(store, time.UTC)
	ctx := context.Background()

	created, err := s.Add(ctx, core.Event{UserID: "u1", Title: "Dentist", Date: core.NewDate(2026, 4, 10)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	created.UserID = "u2"
	if err := s.Update(ctx, created); err == nil {
		t.Error("expected error updating another user's event")
	}
}
