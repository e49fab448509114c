package services

import (
	"context"
	"fmt"
	"log/slog"

	"moneta/internal/core"
)

// CategoryStore is the storage surface for category operations
type CategoryStore interface {
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	ListCategories(ctx context.Context, kind core.TransactionType, userID string) ([]core.Category, error)
	GetCategory(ctx context.Context, kind core.TransactionType, id int64, userID string) (core.Category, error)
	DeleteCategory(ctx context.Context, kind core.TransactionType, id int64, userID string) error
}

// CategoryService manages the two category namespaces. Expense and income
// categories are disjoint sets; the kind selects which one an operation
// touches.
type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

// Add creates a user-owned category in the namespace matching its kind
func (s *CategoryService) Add(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("validation failed: %w", err)
	}
	if c.UserID == "" {
		return core.Category{}, fmt.Errorf("category must belong to a user")
	}
	c.Default = false

	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}

	slog.InfoContext(ctx, "Category created",
		"category_id", created.ID,
		"user_id", created.UserID,
		"kind", created.Kind,
		"name", created.Name)

	return created, nil
}

// List returns the built-in defaults plus the user's own categories for
// one kind
func (s *CategoryService) List(ctx context.Context, kind core.TransactionType, userID string) ([]core.Category, error) {
	if !kind.Valid() {
		return nil, core.ErrInvalidType
	}
	return s.store.ListCategories(ctx, kind, userID)
}

// Get resolves a category visible to the user
func (s *CategoryService) Get(ctx context.Context, kind core.TransactionType, id int64, userID string) (core.Category, error) {
	if !kind.Valid() {
		return core.Category{}, core.ErrInvalidType
	}
	return s.store.GetCategory(ctx, kind, id, userID)
}

// Remove deletes a user-owned category. Built-in defaults cannot be removed;
// the storage layer treats them as not found for deletion.
func (s *CategoryService) Remove(ctx context.Context, kind core.TransactionType, id int64, userID string) error {
	if !kind.Valid() {
		return core.ErrInvalidType
	}

	if err := s.store.DeleteCategory(ctx, kind, id, userID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category removed",
		"category_id", id,
		"user_id", userID,
		"kind", kind)

	return nil
}
