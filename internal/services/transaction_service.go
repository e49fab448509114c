package services

import (
	"context"
	"fmt"
	"log/slog"

	"moneta/internal/core"
)

// TransactionStore is the storage surface for transaction operations
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	ListCategoryTransactions(ctx context.Context, userID string, txType core.TransactionType, categoryID int64) ([]core.Transaction, error)
	SearchTransactions(ctx context.Context, userID, query string) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id int64, userID string) error
	DeleteTransactionsByCategory(ctx context.Context, userID string, txType core.TransactionType, categoryID int64) (int64, error)
	GetCategory(ctx context.Context, kind core.TransactionType, id int64, userID string) (core.Category, error)
}

// Invalidator drops cached per-user views after a write
type Invalidator interface {
	InvalidateUser(userID string)
}

// TransactionService handles transaction CRUD with category resolution.
// A transaction's category lives in the table matching its type, so the
// type decides where the category lookup goes.
type TransactionService struct {
	store      TransactionStore
	invalidate Invalidator
}

// NewTransactionService creates a transaction service. The invalidator may
// be nil.
func NewTransactionService(store TransactionStore, invalidate Invalidator) *TransactionService {
	return &TransactionService{store: store, invalidate: invalidate}
}

func (s *TransactionService) invalidateUser(userID string) {
	if s.invalidate != nil {
		s.invalidate.InvalidateUser(userID)
	}
}

// resolveCategory verifies the category exists in the table matching the
// transaction type and is usable by this user.
func (s *TransactionService) resolveCategory(ctx context.Context, t core.Transaction) error {
	_, err := s.store.GetCategory(ctx, t.Type, t.CategoryID, t.UserID)
	if err != nil {
		return fmt.Errorf("resolve %s category %d: %w", t.Type, t.CategoryID, err)
	}
	return nil
}

// Add validates and stores a transaction, recurring or plain
func (s *TransactionService) Add(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validation failed: %w", err)
	}
	if err := s.resolveCategory(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", created.ID,
		"user_id", created.UserID,
		"type", created.Type,
		"amount_cents", created.Amount.Cents,
		"recurring", created.IsRecurring())

	s.invalidateUser(created.UserID)
	return created, nil
}

// ListAll returns every transaction belonging to the user, newest first
func (s *TransactionService) ListAll(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID)
}

// ListByCategory returns the user's transactions for one category
func (s *TransactionService) ListByCategory(ctx context.Context, userID string, txType core.TransactionType, categoryID int64) ([]core.Transaction, error) {
	if !txType.Valid() {
		return nil, core.ErrInvalidType
	}
	return s.store.ListCategoryTransactions(ctx, userID, txType, categoryID)
}

// Search returns the user's transactions whose name or description contains
// the query string
func (s *TransactionService) Search(ctx context.Context, userID, query string) ([]core.Transaction, error) {
	return s.store.SearchTransactions(ctx, userID, query)
}

// Update replaces a transaction the user owns
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) error {
	if t.ID <= 0 {
		return core.ErrNotFound
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := s.resolveCategory(ctx, t); err != nil {
		return err
	}

	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction updated",
		"transaction_id", t.ID,
		"user_id", t.UserID)

	s.invalidateUser(t.UserID)
	return nil
}

// Remove deletes a transaction the user owns
func (s *TransactionService) Remove(ctx context.Context, id int64, userID string) error {
	if err := s.store.DeleteTransaction(ctx, id, userID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction removed",
		"transaction_id", id,
		"user_id", userID)

	s.invalidateUser(userID)
	return nil
}

// RemoveByCategory deletes all of the user's transactions in one category
// and returns how many were removed
func (s *TransactionService) RemoveByCategory(ctx context.Context, userID string, txType core.TransactionType, categoryID int64) (int64, error) {
	if !txType.Valid() {
		return 0, core.ErrInvalidType
	}

	n, err := s.store.DeleteTransactionsByCategory(ctx, userID, txType, categoryID)
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Transactions removed by category",
		"user_id", userID,
		"type", txType,
		"category_id", categoryID,
		"removed", n)

	if n > 0 {
		s.invalidateUser(userID)
	}
	return n, nil
}
