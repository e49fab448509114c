package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"moneta/internal/core"

	_ "modernc.org/sqlite"
)

const timestampLayout = "2006-01-02 15:04:05"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

func toCoreTransaction(t Transaction) (core.Transaction, error) {
	date, err := time.Parse(dateLayout, t.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", t.Date, err)
	}

	tx := core.Transaction{
		ID:          t.ID,
		UserID:      t.UserID,
		Type:        core.TransactionType(t.Type),
		CategoryID:  t.CategoryID,
		Name:        t.Name,
		Description: t.Description,
		Amount:      core.Money{Cents: t.AmountCents},
		Date:        core.DateOf(date),
		CreatedAt:   t.CreatedAt.Time,
	}

	if t.IsRecurring {
		next, err := time.Parse(dateLayout, t.NextExecutionDate.String)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("parse next execution date %q: %w", t.NextExecutionDate.String, err)
		}
		tx.Recurrence = &core.Recurrence{
			Period:        core.RecurringPeriod(t.Period.String),
			TimeOfDay:     t.TimeOfDay.String,
			NextExecution: core.DateOf(next),
		}
	}

	return tx, nil
}

func toCoreTransactions(rows []Transaction) ([]core.Transaction, error) {
	out := make([]core.Transaction, len(rows))
	for i, row := range rows {
		tx, err := toCoreTransaction(row)
		if err != nil {
			return nil, err
		}
		out[i] = tx
	}
	return out, nil
}

func recurrenceColumns(rec *core.Recurrence) (bool, sql.NullString, sql.NullString, sql.NullString) {
	if rec == nil {
		return false, sql.NullString{}, sql.NullString{}, sql.NullString{}
	}
	return true,
		sql.NullString{String: string(rec.Period), Valid: true},
		sql.NullString{String: rec.TimeOfDay, Valid: true},
		sql.NullString{String: rec.NextExecution.Format(dateLayout), Valid: true}
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	isRec, period, timeOfDay, next := recurrenceColumns(t.Recurrence)
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		UserID:            t.UserID,
		Type:              string(t.Type),
		CategoryID:        t.CategoryID,
		Name:              t.Name,
		Description:       t.Description,
		AmountCents:       t.Amount.Cents,
		Date:              t.Date.Format(dateLayout),
		IsRecurring:       isRec,
		Period:            period,
		TimeOfDay:         timeOfDay,
		NextExecutionDate: next,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return toCoreTransaction(row)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, notFound(err)
	}
	return toCoreTransaction(row)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.queries.GetAllTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return toCoreTransactions(rows)
}

func (r *SQLiteRepository) ListCategoryTransactions(ctx context.Context, userID string, txType core.TransactionType, categoryID int64) ([]core.Transaction, error) {
	rows, err := r.queries.GetCategoryTransactions(ctx, userID, string(txType), categoryID)
	if err != nil {
		return nil, fmt.Errorf("list category transactions: %w", err)
	}
	return toCoreTransactions(rows)
}

func (r *SQLiteRepository) SearchTransactions(ctx context.Context, userID, query string) ([]core.Transaction, error) {
	rows, err := r.queries.SearchTransactions(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("search transactions: %w", err)
	}
	return toCoreTransactions(rows)
}

// ListTransactionsSince returns materialized transactions on or after since,
// excluding recurring templates.
func (r *SQLiteRepository) ListTransactionsSince(ctx context.Context, userID string, since core.Date) ([]core.Transaction, error) {
	rows, err := r.queries.GetTransactionsSince(ctx, userID, since.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list transactions since: %w", err)
	}
	return toCoreTransactions(rows)
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	isRec, period, timeOfDay, next := recurrenceColumns(t.Recurrence)
	n, err := r.queries.UpdateTransaction(ctx, UpdateTransactionParams{
		ID:                t.ID,
		UserID:            t.UserID,
		Type:              string(t.Type),
		CategoryID:        t.CategoryID,
		Name:              t.Name,
		Description:       t.Description,
		AmountCents:       t.Amount.Cents,
		Date:              t.Date.Format(dateLayout),
		IsRecurring:       isRec,
		Period:            period,
		TimeOfDay:         timeOfDay,
		NextExecutionDate: next,
	})
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64, userID string) error {
	n, err := r.queries.DeleteTransaction(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransactionsByCategory(ctx context.Context, userID string, txType core.TransactionType, categoryID int64) (int64, error) {
	n, err := r.queries.DeleteTransactionsByCategory(ctx, userID, string(txType), categoryID)
	if err != nil {
		return 0, fmt.Errorf("delete transactions by category: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) DueRecurring(ctx context.Context, today core.Date, timeOfDay string) ([]core.Transaction, error) {
	rows, err := r.queries.GetDueRecurring(ctx, today.Format(dateLayout), timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("get due recurring: %w", err)
	}
	return toCoreTransactions(rows)
}

func (r *SQLiteRepository) ClaimRecurring(ctx context.Context, id int64, oldNext, newNext core.Date) (bool, error) {
	claimed, err := r.queries.ClaimRecurring(ctx, id, oldNext.Format(dateLayout), newNext.Format(dateLayout))
	if err != nil {
		return false, fmt.Errorf("claim recurring: %w", err)
	}
	return claimed, nil
}

func toCoreCategory(c Category, kind core.TransactionType) core.Category {
	return core.Category{
		ID:      c.ID,
		UserID:  c.UserID.String,
		Kind:    kind,
		Name:    c.Name,
		Icon:    c.Icon,
		Default: c.IsDefault,
	}
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	row, err := r.queries.CreateCategory(ctx, CreateCategoryParams{
		Kind:   string(c.Kind),
		UserID: c.UserID,
		Name:   c.Name,
		Icon:   c.Icon,
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return toCoreCategory(row, c.Kind), nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, kind core.TransactionType, userID string) ([]core.Category, error) {
	rows, err := r.queries.GetCategories(ctx, string(kind), userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, len(rows))
	for i, row := range rows {
		out[i] = toCoreCategory(row, kind)
	}
	return out, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, kind core.TransactionType, id int64, userID string) (core.Category, error) {
	row, err := r.queries.GetCategory(ctx, string(kind), id, userID)
	if err != nil {
		return core.Category{}, notFound(err)
	}
	return toCoreCategory(row, kind), nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, kind core.TransactionType, id int64, userID string) error {
	n, err := r.queries.DeleteCategory(ctx, string(kind), id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func toCoreEvent(e Event) (core.Event, error) {
	date, err := time.Parse(dateLayout, e.Date)
	if err != nil {
		return core.Event{}, fmt.Errorf("parse event date %q: %w", e.Date, err)
	}
	return core.Event{
		ID:        e.ID,
		UserID:    e.UserID,
		Title:     e.Title,
		Note:      e.Note,
		Date:      core.DateOf(date),
		TimeOfDay: e.TimeOfDay.String,
		Period:    core.RecurringPeriod(e.Period.String),
		CreatedAt: e.CreatedAt.Time,
	}, nil
}

func (r *SQLiteRepository) CreateEvent(ctx context.Context, e core.Event) (core.Event, error) {
	var timeOfDay, period sql.NullString
	if e.TimeOfDay != "" {
		timeOfDay = sql.NullString{String: e.TimeOfDay, Valid: true}
	}
	if e.Period != "" {
		period = sql.NullString{String: string(e.Period), Valid: true}
	}
	row, err := r.queries.CreateEvent(ctx, CreateEventParams{
		UserID:    e.UserID,
		Title:     e.Title,
		Note:      e.Note,
		Date:      e.Date.Format(dateLayout),
		TimeOfDay: timeOfDay,
		Period:    period,
	})
	if err != nil {
		return core.Event{}, fmt.Errorf("create event: %w", err)
	}
	return toCoreEvent(row)
}

func (r *SQLiteRepository) ListEvents(ctx context.Context, userID string) ([]core.Event, error) {
	rows, err := r.queries.GetEvents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]core.Event, len(rows))
	for i, row := range rows {
		e, err := toCoreEvent(row)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// DueEvents lists reminder candidates for the given day and minute. Recurring
// candidates still need occurrence filtering by the caller.
func (r *SQLiteRepository) DueEvents(ctx context.Context, date core.Date, timeOfDay string) ([]core.Event, error) {
	rows, err := r.queries.GetDueEvents(ctx, date.Format(dateLayout), timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("due events: %w", err)
	}
	out := make([]core.Event, len(rows))
	for i, row := range rows {
		e, err := toCoreEvent(row)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (r *SQLiteRepository) GetEvent(ctx context.Context, id int64, userID string) (core.Event, error) {
	row, err := r.queries.GetEvent(ctx, id, userID)
	if err != nil {
		return core.Event{}, notFound(err)
	}
	return toCoreEvent(row)
}

func (r *SQLiteRepository) UpdateEvent(ctx context.Context, e core.Event) error {
	var timeOfDay, period sql.NullString
	if e.TimeOfDay != "" {
		timeOfDay = sql.NullString{String: e.TimeOfDay, Valid: true}
	}
	if e.Period != "" {
		period = sql.NullString{String: string(e.Period), Valid: true}
	}
	n, err := r.queries.UpdateEvent(ctx, UpdateEventParams{
		ID:        e.ID,
		UserID:    e.UserID,
		Title:     e.Title,
		Note:      e.Note,
		Date:      e.Date.Format(dateLayout),
		TimeOfDay: timeOfDay,
		Period:    period,
	})
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id int64, userID string) error {
	n, err := r.queries.DeleteEvent(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func toCoreUser(u User) core.User {
	return core.User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Admin:        u.IsAdmin,
		Verified:     u.IsVerified,
		CreatedAt:    u.CreatedAt.Time,
	}
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	row, err := r.queries.CreateUser(ctx, CreateUserParams{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
	})
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return toCoreUser(row), nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, notFound(err)
	}
	return toCoreUser(row), nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (core.User, error) {
	row, err := r.queries.GetUserByID(ctx, id)
	if err != nil {
		return core.User{}, notFound(err)
	}
	return toCoreUser(row), nil
}

func (r *SQLiteRepository) MarkUserVerified(ctx context.Context, id string) error {
	n, err := r.queries.MarkUserVerified(ctx, id)
	if err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	n, err := r.queries.UpdateUserPassword(ctx, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]core.User, len(rows))
	for i, row := range rows {
		out[i] = toCoreUser(row)
	}
	return out, nil
}

// VerificationToken is a pending email verification or password reset token
type VerificationToken struct {
	Token     string
	UserID    string
	Purpose   string
	ExpiresAt time.Time
}

func (r *SQLiteRepository) CreateVerification(ctx context.Context, v VerificationToken) error {
	err := r.queries.CreateVerification(ctx, CreateVerificationParams{
		Token:     v.Token,
		UserID:    v.UserID,
		Purpose:   v.Purpose,
		ExpiresAt: v.ExpiresAt.UTC().Format(timestampLayout),
	})
	if err != nil {
		return fmt.Errorf("create verification: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetVerification(ctx context.Context, token string) (VerificationToken, error) {
	row, err := r.queries.GetVerification(ctx, token)
	if err != nil {
		return VerificationToken{}, notFound(err)
	}
	return VerificationToken{
		Token:     row.Token,
		UserID:    row.UserID,
		Purpose:   row.Purpose,
		ExpiresAt: row.ExpiresAt.Time,
	}, nil
}

func (r *SQLiteRepository) DeleteVerification(ctx context.Context, token string) error {
	if err := r.queries.DeleteVerification(ctx, token); err != nil {
		return fmt.Errorf("delete verification: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpiredVerifications(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.queries.DeleteExpiredVerifications(ctx, now.UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("delete expired verifications: %w", err)
	}
	return n, nil
}

// UserRollup is a per-user summary for the admin overview
type UserRollup struct {
	UserID           string
	Email            string
	Name             string
	TransactionCount int64
	Income           core.Money
	Expense          core.Money
}

func (r *SQLiteRepository) GetUserRollups(ctx context.Context) ([]UserRollup, error) {
	rows, err := r.queries.GetUserTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("get user rollups: %w", err)
	}
	out := make([]UserRollup, len(rows))
	for i, row := range rows {
		out[i] = UserRollup{
			UserID:           row.UserID,
			Email:            row.Email,
			Name:             row.Name,
			TransactionCount: row.TransactionCount,
			Income:           core.Money{Cents: row.IncomeCents},
			Expense:          core.Money{Cents: row.ExpenseCents},
		}
	}
	return out, nil
}

func (r *SQLiteRepository) CountTransactions(ctx context.Context) (int64, error) {
	n, err := r.queries.CountTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}
