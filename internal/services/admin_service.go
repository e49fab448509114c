package services

import (
	"context"
	"fmt"
	"time"

	"moneta/internal/core"
	"moneta/internal/storage"
)

// AdminStore is the storage surface for admin rollups
type AdminStore interface {
	ListUsers(ctx context.Context) ([]core.User, error)
	GetUserRollups(ctx context.Context) ([]storage.UserRollup, error)
	CountTransactions(ctx context.Context) (int64, error)
	DeleteExpiredVerifications(ctx context.Context, now time.Time) (int64, error)
}

// Overview is the system-wide summary for admins
type Overview struct {
	UserCount        int64
	TransactionCount int64
	TotalIncome      core.Money
	TotalExpense     core.Money
	Users            []storage.UserRollup
}

// AdminService provides cross-user rollups for administrators
type AdminService struct {
	store AdminStore
	now   func() time.Time
}

func NewAdminService(store AdminStore) *AdminService {
	return &AdminService{store: store, now: time.Now}
}

// Overview aggregates per-user rollups into the system summary
func (s *AdminService) Overview(ctx context.Context) (Overview, error) {
	rollups, err := s.store.GetUserRollups(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("load user rollups: %w", err)
	}

	txCount, err := s.store.CountTransactions(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("count transactions: %w", err)
	}

	ov := Overview{
		UserCount:        int64(len(rollups)),
		TransactionCount: txCount,
		Users:            rollups,
	}
	for _, r := range rollups {
		ov.TotalIncome.Cents += r.Income.Cents
		ov.TotalExpense.Cents += r.Expense.Cents
	}
	return ov, nil
}

// Users lists every registered account
func (s *AdminService) Users(ctx context.Context) ([]core.User, error) {
	return s.store.ListUsers(ctx)
}

// PruneVerifications deletes expired verification tokens and returns how
// many were removed
func (s *AdminService) PruneVerifications(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredVerifications(ctx, s.now())
}
