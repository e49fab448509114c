package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"moneta/internal/core"
	"moneta/internal/storage"
)

type fakeAdminStore struct {
	users      []core.User
	rollups    []storage.UserRollup
	txCount    int64
	rollupsErr error
	prunedAt   time.Time
	pruned     int64
}

func (s *fakeAdminStore) ListUsers(_ context.Context) ([]core.User, error) {
	return s.users, nil
}

func (s *fakeAdminStore) GetUserRollups(_ context.Context) ([]storage.UserRollup, error) {
	if s.rollupsErr != nil {
		return nil, s.rollupsErr
	}
	return s.rollups, nil
}

func (s *fakeAdminStore) CountTransactions(_ context.Context) (int64, error) {
	return s.txCount, nil
}

func (s *fakeAdminStore) DeleteExpiredVerifications(_ context.Context, now time.Time) (int64, error) {
	s.prunedAt = now
	return s.pruned, nil
}

func TestAdminOverview(t *testing.T) {
	store := &fakeAdminStore{
		rollups: []storage.UserRollup{
			{UserID: "u1", Email: "a@example.com", TransactionCount: 4, Income: core.Money{Cents: 10000}, Expense: core.Money{Cents: 2500}},
			{UserID: "u2", Email: "b@example.com", TransactionCount: 1, Income: core.Money{Cents: 5000}, Expense: core.Money{Cents: 7500}},
		},
		txCount: 5,
	}
	svc := NewAdminService(store)

	ov, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if ov.UserCount != 2 {
		t.Errorf("expected 2 users, got %d", ov.UserCount)
	}
	if ov.TransactionCount != 5 {
		t.Errorf("expected 5 transactions, got %d", ov.TransactionCount)
	}
	if ov.TotalIncome.Cents != 15000 {
		t.Errorf("expected total income 15000, got %d", ov.TotalIncome.Cents)
	}
	if ov.TotalExpense.Cents != 10000 {
		t.Errorf("expected total expense 10000, got %d", ov.TotalExpense.Cents)
	}
	if len(ov.Users) != 2 {
		t.Errorf("expected per-user rollups, got %d", len(ov.Users))
	}
}

func TestAdminOverviewEmpty(t *testing.T) {
	svc := NewAdminService(&fakeAdminStore{})

	ov, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if ov.UserCount != 0 || ov.TotalIncome.Cents != 0 || ov.TotalExpense.Cents != 0 {
		t.Errorf("expected zero overview, got %+v", ov)
	}
}

func TestAdminOverviewStoreError(t *testing.T) {
	storeErr := errors.New("db gone")
	svc := NewAdminService(&fakeAdminStore{rollupsErr: storeErr})

	_, err := svc.Overview(context.Background())
	if !errors.Is(err, storeErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestAdminPruneVerifications(t *testing.T) {
	store := &fakeAdminStore{pruned: 3}
	svc := NewAdminService(store)
	fixed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	n, err := svc.PruneVerifications(context.Background())
	if err != nil {
		t.Fatalf("PruneVerifications failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 pruned, got %d", n)
	}
	if !store.prunedAt.Equal(fixed) {
		t.Errorf("expected cutoff %v, got %v", fixed, store.prunedAt)
	}
}
