package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the subset of *sql.DB and *sql.Tx the queries need
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// dateLayout is the storage format for calendar dates. Lexicographic order
// matches chronological order, so range queries compare strings directly.
const dateLayout = "2006-01-02"

// Transaction is a raw transactions row
type Transaction struct {
	ID                int64
	UserID            string
	Type              string
	CategoryID        int64
	Name              string
	Description       string
	AmountCents       int64
	Date              string
	IsRecurring       bool
	Period            sql.NullString
	TimeOfDay         sql.NullString
	NextExecutionDate sql.NullString
	CreatedAt         sql.NullTime
}

// Category is a raw row from either category table
type Category struct {
	ID        int64
	UserID    sql.NullString
	Name      string
	Icon      string
	IsDefault bool
	CreatedAt sql.NullTime
}

// Event is a raw events row
type Event struct {
	ID        int64
	UserID    string
	Title     string
	Note      string
	Date      string
	TimeOfDay sql.NullString
	Period    sql.NullString
	CreatedAt sql.NullTime
}

// User is a raw users row
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	IsAdmin      bool
	IsVerified   bool
	CreatedAt    sql.NullTime
}

// Verification is a raw verifications row
type Verification struct {
	Token     string
	UserID    string
	Purpose   string
	ExpiresAt sql.NullTime
	CreatedAt sql.NullTime
}

// UserTotals is one row of the per-user admin rollup
type UserTotals struct {
	UserID           string
	Email            string
	Name             string
	TransactionCount int64
	IncomeCents      int64
	ExpenseCents     int64
}

const transactionColumns = `id, user_id, type, category_id, name, description, amount_cents, date,
	is_recurring, period, time_of_day, next_execution_date, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.CategoryID, &t.Name, &t.Description,
		&t.AmountCents, &t.Date, &t.IsRecurring, &t.Period, &t.TimeOfDay,
		&t.NextExecutionDate, &t.CreatedAt)
	return t, err
}

func (q *Queries) collectTransactions(rows *sql.Rows) ([]Transaction, error) {
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type CreateTransactionParams struct {
	UserID            string
	Type              string
	CategoryID        int64
	Name              string
	Description       string
	AmountCents       int64
	Date              string
	IsRecurring       bool
	Period            sql.NullString
	TimeOfDay         sql.NullString
	NextExecutionDate sql.NullString
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO transactions (user_id, type, category_id, name, description, amount_cents, date,
			is_recurring, period, time_of_day, next_execution_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+transactionColumns,
		arg.UserID, arg.Type, arg.CategoryID, arg.Name, arg.Description, arg.AmountCents,
		arg.Date, arg.IsRecurring, arg.Period, arg.TimeOfDay, arg.NextExecutionDate)
	return scanTransaction(row)
}

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

func (q *Queries) GetAllTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = ?
		 ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return q.collectTransactions(rows)
}

func (q *Queries) GetCategoryTransactions(ctx context.Context, userID, txType string, categoryID int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = ? AND type = ? AND category_id = ?
		 ORDER BY date DESC, id DESC`, userID, txType, categoryID)
	if err != nil {
		return nil, err
	}
	return q.collectTransactions(rows)
}

func (q *Queries) SearchTransactions(ctx context.Context, userID, query string) ([]Transaction, error) {
	pattern := "%" + query + "%"
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = ? AND (name LIKE ? OR description LIKE ?)
		 ORDER BY date DESC, id DESC`, userID, pattern, pattern)
	if err != nil {
		return nil, err
	}
	return q.collectTransactions(rows)
}

func (q *Queries) GetTransactionsSince(ctx context.Context, userID, since string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = ? AND date >= ? AND is_recurring = 0
		 ORDER BY date ASC, id ASC`, userID, since)
	if err != nil {
		return nil, err
	}
	return q.collectTransactions(rows)
}

type UpdateTransactionParams struct {
	ID                int64
	UserID            string
	Type              string
	CategoryID        int64
	Name              string
	Description       string
	AmountCents       int64
	Date              string
	IsRecurring       bool
	Period            sql.NullString
	TimeOfDay         sql.NullString
	NextExecutionDate sql.NullString
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, category_id = ?, name = ?, description = ?, amount_cents = ?, date = ?,
			is_recurring = ?, period = ?, time_of_day = ?, next_execution_date = ?
		WHERE id = ? AND user_id = ?`,
		arg.Type, arg.CategoryID, arg.Name, arg.Description, arg.AmountCents, arg.Date,
		arg.IsRecurring, arg.Period, arg.TimeOfDay, arg.NextExecutionDate,
		arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteTransaction(ctx context.Context, id int64, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteTransactionsByCategory(ctx context.Context, userID, txType string, categoryID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND type = ? AND category_id = ?`,
		userID, txType, categoryID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetDueRecurring returns recurring templates whose next execution date has
// arrived and whose scheduled minute matches timeOfDay exactly.
func (q *Queries) GetDueRecurring(ctx context.Context, today, timeOfDay string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE is_recurring = 1 AND next_execution_date <= ? AND time_of_day = ?
		 ORDER BY id ASC`, today, timeOfDay)
	if err != nil {
		return nil, err
	}
	return q.collectTransactions(rows)
}

// ClaimRecurring advances a template's next execution date, but only if the
// stored date still matches the one the caller read. A false return means a
// concurrent run claimed the template first.
func (q *Queries) ClaimRecurring(ctx context.Context, id int64, oldNext, newNext string) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions
		SET next_execution_date = ?
		WHERE id = ? AND next_execution_date = ? AND is_recurring = 1`,
		newNext, id, oldNext)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// categoryTable maps a transaction type to its category table. The two kinds
// live in separate tables, so every category query goes through here.
func categoryTable(txType string) (string, error) {
	switch txType {
	case "expense":
		return "expense_categories", nil
	case "income":
		return "income_categories", nil
	}
	return "", fmt.Errorf("unknown category kind: %s", txType)
}

const categoryColumns = `id, user_id, name, icon, is_default, created_at`

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.IsDefault, &c.CreatedAt)
	return c, err
}

type CreateCategoryParams struct {
	Kind   string
	UserID string
	Name   string
	Icon   string
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	table, err := categoryTable(arg.Kind)
	if err != nil {
		return Category{}, err
	}
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO `+table+` (user_id, name, icon, is_default)
		VALUES (?, ?, ?, 0)
		RETURNING `+categoryColumns,
		arg.UserID, arg.Name, arg.Icon)
	return scanCategory(row)
}

// GetCategories returns the built-in defaults plus the user's own categories
func (q *Queries) GetCategories(ctx context.Context, kind, userID string) ([]Category, error) {
	table, err := categoryTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+categoryColumns+` FROM `+table+`
		WHERE user_id IS NULL OR user_id = ?
		ORDER BY is_default DESC, name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory resolves a category the user may use: a default or one they own
func (q *Queries) GetCategory(ctx context.Context, kind string, id int64, userID string) (Category, error) {
	table, err := categoryTable(kind)
	if err != nil {
		return Category{}, err
	}
	row := q.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM `+table+`
		WHERE id = ? AND (user_id IS NULL OR user_id = ?)`, id, userID)
	return scanCategory(row)
}

// DeleteCategory removes a user-owned category. Defaults cannot be deleted.
func (q *Queries) DeleteCategory(ctx context.Context, kind string, id int64, userID string) (int64, error) {
	table, err := categoryTable(kind)
	if err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE id = ? AND user_id = ? AND is_default = 0`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const eventColumns = `id, user_id, title, note, date, time_of_day, period, created_at`

func scanEvent(row interface{ Scan(...any) error }) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Note, &e.Date, &e.TimeOfDay, &e.Period, &e.CreatedAt)
	return e, err
}

type CreateEventParams struct {
	UserID    string
	Title     string
	Note      string
	Date      string
	TimeOfDay sql.NullString
	Period    sql.NullString
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO events (user_id, title, note, date, time_of_day, period)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+eventColumns,
		arg.UserID, arg.Title, arg.Note, arg.Date, arg.TimeOfDay, arg.Period)
	return scanEvent(row)
}

func (q *Queries) GetEvents(ctx context.Context, userID string) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE user_id = ? ORDER BY date ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetDueEvents selects candidate events for the reminder sweep: anything
// scheduled at the given minute whose date matches today or, for recurring
// events, whose anchor is today or earlier. Recurrence expansion happens in
// the service layer.
func (q *Queries) GetDueEvents(ctx context.Context, date, timeOfDay string) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+eventColumns+` FROM events
		WHERE time_of_day = ?
		  AND (date = ? OR (period IS NOT NULL AND date <= ?))`,
		timeOfDay, date, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q *Queries) GetEvent(ctx context.Context, id int64, userID string) (Event, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ? AND user_id = ?`, id, userID)
	return scanEvent(row)
}

type UpdateEventParams struct {
	ID        int64
	UserID    string
	Title     string
	Note      string
	Date      string
	TimeOfDay sql.NullString
	Period    sql.NullString
}

func (q *Queries) UpdateEvent(ctx context.Context, arg UpdateEventParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE events
		SET title = ?, note = ?, date = ?, time_of_day = ?, period = ?
		WHERE id = ? AND user_id = ?`,
		arg.Title, arg.Note, arg.Date, arg.TimeOfDay, arg.Period, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteEvent(ctx context.Context, id int64, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM events WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const userColumns = `id, email, password_hash, name, is_admin, is_verified, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.IsAdmin, &u.IsVerified, &u.CreatedAt)
	return u, err
}

type CreateUserParams struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, password_hash, name)
		VALUES (?, ?, ?, ?)
		RETURNING `+userColumns,
		arg.ID, arg.Email, arg.PasswordHash, arg.Name)
	return scanUser(row)
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (q *Queries) MarkUserVerified(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE users SET is_verified = 1 WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) UpdateUserPassword(ctx context.Context, id, passwordHash string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type CreateVerificationParams struct {
	Token     string
	UserID    string
	Purpose   string
	ExpiresAt string
}

func (q *Queries) CreateVerification(ctx context.Context, arg CreateVerificationParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO verifications (token, user_id, purpose, expires_at)
		VALUES (?, ?, ?, ?)`,
		arg.Token, arg.UserID, arg.Purpose, arg.ExpiresAt)
	return err
}

func (q *Queries) GetVerification(ctx context.Context, token string) (Verification, error) {
	var v Verification
	err := q.db.QueryRowContext(ctx,
		`SELECT token, user_id, purpose, expires_at, created_at FROM verifications WHERE token = ?`, token).
		Scan(&v.Token, &v.UserID, &v.Purpose, &v.ExpiresAt, &v.CreatedAt)
	return v, err
}

func (q *Queries) DeleteVerification(ctx context.Context, token string) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM verifications WHERE token = ?`, token)
	return err
}

func (q *Queries) DeleteExpiredVerifications(ctx context.Context, now string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM verifications WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetUserTotals aggregates transaction counts and signed sums per user
func (q *Queries) GetUserTotals(ctx context.Context) ([]UserTotals, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT u.id, u.email, u.name,
			COUNT(t.id),
			COALESCE(SUM(CASE WHEN t.type = 'income' THEN t.amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN t.type = 'expense' THEN t.amount_cents ELSE 0 END), 0)
		FROM users u
		LEFT JOIN transactions t ON t.user_id = u.id AND t.is_recurring = 0
		GROUP BY u.id, u.email, u.name
		ORDER BY u.created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UserTotals
	for rows.Next() {
		var r UserTotals
		if err := rows.Scan(&r.UserID, &r.Email, &r.Name, &r.TransactionCount,
			&r.IncomeCents, &r.ExpenseCents); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE is_recurring = 0`).Scan(&n)
	return n, err
}
