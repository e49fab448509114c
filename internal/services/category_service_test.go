package services

import (
	"context"
	"errors"
	"testing"

	"moneta/internal/core"
)

type fakeCategoryStore struct {
	categories map[int64]core.Category
	nextID     int64
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{
		categories: map[int64]core.Category{
			1: {ID: 1, Kind: core.Expense, Name: "Groceries", Default: true},
		},
		nextID: 1,
	}
}

func (s *fakeCategoryStore) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.nextID++
	c.ID = s.nextID
	s.categories[c.ID] = c
	return c, nil
}

func (s *fakeCategoryStore) ListCategories(_ context.Context, kind core.TransactionType, userID string) ([]core.Category, error) {
	var out []core.Category
	for _, c := range s.categories {
		if c.Kind == kind && (c.Default || c.UserID == userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeCategoryStore) GetCategory(_ context.Context, kind core.TransactionType, id int64, userID string) (core.Category, error) {
	c, ok := s.categories[id]
	if !ok || c.Kind != kind || (!c.Default && c.UserID != userID) {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (s *fakeCategoryStore) DeleteCategory(_ context.Context, kind core.TransactionType, id int64, userID string) error {
	c, ok := s.categories[id]
	if !ok || c.Kind != kind || c.Default || c.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func TestCategoryAdd(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryStore())

	created, err := svc.Add(context.Background(), core.Category{
		UserID: "u1",
		Kind:   core.Expense,
		Name:   "Hobby",
		Icon:   "🎨",
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected assigned ID")
	}
	if created.Default {
		t.Error("user-created category must not be a default")
	}
}

func TestCategoryAddStripsDefaultFlag(t *testing.T) {
	store := newFakeCategoryStore()
	svc := NewCategoryService(store)

	created, err := svc.Add(context.Background(), core.Category{
		UserID:  "u1",
		Kind:    core.Income,
		Name:    "Bonus",
		Default: true,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if created.Default {
		t.Error("Default flag must be ignored on user input")
	}
}

func TestCategoryAddValidation(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryStore())

	tests := []struct {
		name     string
		category core.Category
		wantErr  error
	}{
		{"blank name", core.Category{UserID: "u1", Kind: core.Expense, Name: " "}, core.ErrEmptyName},
		{"bad kind", core.Category{UserID: "u1", Kind: "transfer", Name: "X"}, core.ErrInvalidType},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), tc.category)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCategoryAddRequiresOwner(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryStore())

	_, err := svc.Add(context.Background(), core.Category{Kind: core.Expense, Name: "Orphan"})
	if err == nil {
		t.Fatal("expected error for ownerless category")
	}
}

func TestCategoryListIncludesDefaults(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryStore())

	if _, err := svc.Add(context.Background(), core.Category{UserID: "u1", Kind: core.Expense, Name: "Hobby"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	mine, err := svc.List(context.Background(), core.Expense, "u1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("expected default plus own category, got %d", len(mine))
	}

	theirs, err := svc.List(context.Background(), core.Expense, "u2")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(theirs) != 1 {
		t.Errorf("expected only the default for another user, got %d", len(theirs))
	}
}

func TestCategoryRemove(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryStore())

	created, err := svc.Add(context.Background(), core.Category{UserID: "u1", Kind: core.Expense, Name: "Hobby"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := svc.Remove(context.Background(), core.Expense, created.ID, "u1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), core.Expense, created.ID, "u1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound after removal, got %v", err)
	}
}

func TestCategoryRemoveDefaultRejected(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryStore())

	if err := svc.Remove(context.Background(), core.Expense, 1, "u1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound for built-in default, got %v", err)
	}
}

func TestCategoryRemoveRejectsBadKind(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryStore())

	if err := svc.Remove(context.Background(), "transfer", 1, "u1"); !errors.Is(err, core.ErrInvalidType) {
		t.Errorf("expected ErrInvalidType, got %v", err)
	}
}
