package services

import (
	"context"
	"fmt"
	"time"

	"moneta/internal/cache"
	"moneta/internal/core"
)

// AnalysisStore is the storage surface for aggregation queries
type AnalysisStore interface {
	ListTransactionsSince(ctx context.Context, userID string, since core.Date) ([]core.Transaction, error)
}

// AnalysisService aggregates a user's transactions into fixed bucket sets
// per timeframe. Results are cached per user and timeframe; any write to the
// user's transactions drops their cached entries.
type AnalysisService struct {
	store    AnalysisStore
	cache    *cache.LRUCache[core.Statistics]
	location *time.Location
	now      func() time.Time
}

func NewAnalysisService(store AnalysisStore, location *time.Location) *AnalysisService {
	if location == nil {
		location = time.UTC
	}
	return &AnalysisService{
		store:    store,
		cache:    cache.NewLRUCache[core.Statistics](256, 5*time.Minute),
		location: location,
		now:      time.Now,
	}
}

// Cache exposes the underlying cache for cleanup registration
func (s *AnalysisService) Cache() *cache.LRUCache[core.Statistics] {
	return s.cache
}

// InvalidateUser drops every cached timeframe for the user
func (s *AnalysisService) InvalidateUser(userID string) {
	s.cache.DeletePrefix(userID + ":")
}

func cacheKey(userID string, tf core.Timeframe) string {
	return userID + ":" + string(tf)
}

// Statistics aggregates the user's transactions over the timeframe's
// lookback window into its seeded buckets. Transactions that fall outside
// every bucket are dropped from the buckets but still counted in
// TotalIncome/TotalExpense: the weekly buckets only cover month days 1-28,
// so for that timeframe the totals deliberately exceed the bucket sum when
// day 29-31 transactions exist.
func (s *AnalysisService) Statistics(ctx context.Context, userID string, tf core.Timeframe) (core.Statistics, error) {
	if !tf.Valid() {
		return core.Statistics{}, fmt.Errorf("invalid timeframe: %s", tf)
	}

	key := cacheKey(userID, tf)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	now := s.now().In(s.location)
	since := core.DateOf(core.LookbackStart(tf, now))

	transactions, err := s.store.ListTransactionsSince(ctx, userID, since)
	if err != nil {
		return core.Statistics{}, fmt.Errorf("load transactions for analysis: %w", err)
	}

	stats := core.Statistics{
		Timeframe: tf,
		Buckets:   core.SeedBuckets(tf, now),
	}

	for _, t := range transactions {
		switch t.Type {
		case core.Income:
			stats.TotalIncome.Cents += t.Amount.Cents
		case core.Expense:
			stats.TotalExpense.Cents += t.Amount.Cents
		}

		idx := core.BucketIndex(tf, t.Date.Time, now)
		if idx < 0 || idx >= len(stats.Buckets) {
			continue
		}
		switch t.Type {
		case core.Income:
			stats.Buckets[idx].Income.Cents += t.Amount.Cents
		case core.Expense:
			stats.Buckets[idx].Expense.Cents += t.Amount.Cents
		}
	}

	s.cache.Set(key, stats)
	return stats, nil
}

// Totals sums the user's income and expenses across their entire history.
// The zero since date stays below every stored transaction date, so no
// lookback window applies.
func (s *AnalysisService) Totals(ctx context.Context, userID string) (core.Totals, error) {
	transactions, err := s.store.ListTransactionsSince(ctx, userID, core.Date{})
	if err != nil {
		return core.Totals{}, fmt.Errorf("load transactions for totals: %w", err)
	}

	var totals core.Totals
	for _, t := range transactions {
		switch t.Type {
		case core.Income:
			totals.Income.Cents += t.Amount.Cents
		case core.Expense:
			totals.Expense.Cents += t.Amount.Cents
		}
	}
	return totals, nil
}
