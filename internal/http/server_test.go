package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"moneta/internal/auth"
	"moneta/internal/core"
	"moneta/internal/services"
)

type fakeAuth struct {
	users map[string]core.User // token -> user
}

func (f *fakeAuth) Signup(_ context.Context, email, password, name string) (core.User, error) {
	if !strings.Contains(email, "@") {
		return core.User{}, services.ErrInvalidEmail
	}
	if len(password) < 8 {
		return core.User{}, auth.ErrPasswordTooShort
	}
	return core.User{ID: "new-user", Email: email, Name: name}, nil
}

func (f *fakeAuth) VerifyEmail(context.Context, string) error { return nil }

func (f *fakeAuth) Login(_ context.Context, email, password string) (string, core.User, error) {
	if password != "correct-horse" {
		return "", core.User{}, services.ErrInvalidCredentials
	}
	return "session-token", core.User{ID: "u1", Email: email, Verified: true}, nil
}

func (f *fakeAuth) RequestPasswordReset(context.Context, string) error { return nil }

func (f *fakeAuth) ResetPassword(context.Context, string, string) error { return nil }

func (f *fakeAuth) Authenticate(_ context.Context, token string) (core.User, error) {
	u, ok := f.users[token]
	if !ok {
		return core.User{}, auth.ErrInvalidToken
	}
	return u, nil
}

type fakeTransactions struct {
	added   []core.Transaction
	listErr error
}

func (f *fakeTransactions) Add(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = int64(len(f.added) + 1)
	f.added = append(f.added, t)
	return t, nil
}

func (f *fakeTransactions) ListAll(_ context.Context, userID string) ([]core.Transaction, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []core.Transaction
	for _, t := range f.added {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTransactions) ListByCategory(ctx context.Context, userID string, _ core.TransactionType, categoryID int64) ([]core.Transaction, error) {
	all, err := f.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []core.Transaction
	for _, t := range all {
		if t.CategoryID == categoryID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTransactions) Search(ctx context.Context, userID, query string) ([]core.Transaction, error) {
	all, err := f.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []core.Transaction
	for _, t := range all {
		if strings.Contains(t.Name, query) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTransactions) Update(_ context.Context, t core.Transaction) error {
	for i, existing := range f.added {
		if existing.ID == t.ID && existing.UserID == t.UserID {
			f.added[i] = t
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeTransactions) Remove(_ context.Context, id int64, userID string) error {
	for i, t := range f.added {
		if t.ID == id && t.UserID == userID {
			f.added = append(f.added[:i], f.added[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeTransactions) RemoveByCategory(_ context.Context, userID string, _ core.TransactionType, categoryID int64) (int64, error) {
	var kept []core.Transaction
	var removed int64
	for _, t := range f.added {
		if t.UserID == userID && t.CategoryID == categoryID {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	f.added = kept
	return removed, nil
}

type fakeCategories struct{}

func (fakeCategories) Add(_ context.Context, c core.Category) (core.Category, error) {
	c.ID = 7
	return c, nil
}

func (fakeCategories) List(context.Context, core.TransactionType, string) ([]core.Category, error) {
	return []core.Category{{ID: 1, Kind: core.Expense, Name: "Rent", Default: true}}, nil
}

func (fakeCategories) Remove(context.Context, core.TransactionType, int64, string) error {
	return nil
}

type fakeAnalysis struct{}

func (fakeAnalysis) Statistics(_ context.Context, _ string, tf core.Timeframe) (core.Statistics, error) {
	return core.Statistics{Timeframe: tf, TotalIncome: core.Money{Cents: 1000}}, nil
}

func (fakeAnalysis) Totals(context.Context, string) (core.Totals, error) {
	return core.Totals{Income: core.Money{Cents: 5000}, Expense: core.Money{Cents: 1250}}, nil
}

type fakeEvents struct{}

func (fakeEvents) Add(_ context.Context, e core.Event) (core.Event, error) {
	if err := e.Validate(); err != nil {
		return core.Event{}, err
	}
	e.ID = 3
	return e, nil
}

func (fakeEvents) List(context.Context, string) ([]core.Event, error) { return nil, nil }

func (fakeEvents) Update(_ context.Context, e core.Event) error {
	return e.Validate()
}

func (fakeEvents) Remove(context.Context, int64, string) error { return nil }

func (fakeEvents) Upcoming(_ context.Context, _ string, from, until core.Date) ([]services.Occurrence, error) {
	if until.Before(from.Time) {
		return nil, services.ErrInvalidWindow
	}
	return nil, nil
}

type fakeAdmin struct{}

func (fakeAdmin) Overview(context.Context) (services.Overview, error) {
	return services.Overview{UserCount: 2, TransactionCount: 9}, nil
}

func (fakeAdmin) Users(context.Context) ([]core.User, error) {
	return []core.User{{ID: "u1"}, {ID: "u2", Admin: true}}, nil
}

func (fakeAdmin) PruneVerifications(context.Context) (int64, error) { return 4, nil }

type fakeChat struct{}

func (fakeChat) Ask(_ context.Context, question string, _ []core.Transaction) (string, error) {
	return "answer to: " + question, nil
}

type fakeRecurring struct {
	processed int
	calls     int
	err       error
}

func (f *fakeRecurring) ProcessDue(context.Context) (int, error) {
	f.calls++
	return f.processed, f.err
}

const testCronSecret = "sweep-secret"

func newTestServer(t *testing.T) (*Server, *fakeTransactions, *fakeRecurring) {
	t.Helper()
	transactions := &fakeTransactions{}
	recurring := &fakeRecurring{processed: 2}
	s := NewServer(":0", Deps{
		Auth: &fakeAuth{users: map[string]core.User{
			"user-token":  {ID: "u1", Email: "u1@example.com", Verified: true},
			"admin-token": {ID: "a1", Email: "admin@example.com", Verified: true, Admin: true},
		}},
		Transactions: transactions,
		Categories:   fakeCategories{},
		Analysis:     fakeAnalysis{},
		Events:       fakeEvents{},
		Admin:        fakeAdmin{},
		Chat:         fakeChat{},
		Recurring:    recurring,
		CronSecret:   testCronSecret,
	})
	t.Cleanup(func() { s.rateLimiter.stop() })
	return s, transactions, recurring
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestProcessRecurringRequiresCronSecret(t *testing.T) {
	s, _, recurring := newTestServer(t)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong secret", "Bearer nope", http.StatusUnauthorized},
		{"valid secret", "Bearer " + testCronSecret, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/transactions?action=processRecurring", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.Server.Handler.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	if recurring.calls != 1 {
		t.Errorf("ProcessDue calls = %d, want 1 (rejected requests must not reach the store)", recurring.calls)
	}
}

func TestProcessRecurringReportsCount(t *testing.T) {
	s, _, recurring := newTestServer(t)
	recurring.processed = 3

	req := httptest.NewRequest(http.MethodGet, "/api/transactions?action=processRecurring", nil)
	req.Header.Set("Authorization", "Bearer "+testCronSecret)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	body := decodeResponse(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if got := body["processedCount"]; got != float64(3) {
		t.Errorf("processedCount = %v, want 3", got)
	}
}

func TestProcessRecurringFailure(t *testing.T) {
	s, _, recurring := newTestServer(t)
	recurring.err = fmt.Errorf("db gone")

	req := httptest.NewRequest(http.MethodGet, "/api/transactions?action=processRecurring", nil)
	req.Header.Set("Authorization", "Bearer "+testCronSecret)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeResponse(t, rec)
	if msg := body["message"]; msg == "db gone" {
		t.Error("internal error detail leaked to the client")
	}
}

func TestTransactionActionsRequireToken(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", map[string]any{
		"action": "getAllTransactions",
		"token":  "bogus",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAddAndListTransactions(t *testing.T) {
	s, transactions, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", map[string]any{
		"action":     "addTransaction",
		"token":      "user-token",
		"type":       "expense",
		"categoryId": 1,
		"name":       "Groceries",
		"amount":     "42.50",
		"date":       "2026-03-10",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(transactions.added) != 1 {
		t.Fatalf("stored %d transactions, want 1", len(transactions.added))
	}
	if got := transactions.added[0].Amount.Cents; got != 4250 {
		t.Errorf("stored cents = %d, want 4250", got)
	}
	if transactions.added[0].UserID != "u1" {
		t.Errorf("owner = %q, want the authenticated user", transactions.added[0].UserID)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/transactions", map[string]any{
		"action": "getAllTransactions",
		"token":  "user-token",
	})
	body := decodeResponse(t, rec)
	list, ok := body["transactions"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("transactions = %v, want one entry", body["transactions"])
	}
	first := list[0].(map[string]any)
	if first["amount"] != "42.50" {
		t.Errorf("amount = %v, want 42.50", first["amount"])
	}
}

func TestAddTransactionRejectsBadAmount(t *testing.T) {
	s, transactions, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", map[string]any{
		"action":     "addTransaction",
		"token":      "user-token",
		"type":       "expense",
		"categoryId": 1,
		"name":       "Groceries",
		"amount":     "-5.00",
		"date":       "2026-03-10",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(transactions.added) != 0 {
		t.Error("invalid transaction was stored")
	}
}

func TestUnknownActionRejected(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", map[string]any{
		"action": "dropAllTables",
		"token":  "user-token",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/auth", map[string]any{
		"action":   "login",
		"email":    "u1@example.com",
		"password": "correct-horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeResponse(t, rec)
	if body["token"] != "session-token" {
		t.Errorf("token = %v, want session-token", body["token"])
	}

	rec = doJSON(t, s, http.MethodPost, "/api/auth", map[string]any{
		"action":   "login",
		"email":    "u1@example.com",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want 401", rec.Code)
	}
}

func TestSignupValidation(t *testing.T) {
	s, _, _ := newTestServer(t)

	tests := []struct {
		name     string
		email    string
		password string
		status   int
	}{
		{"valid", "new@example.com", "long-enough", http.StatusOK},
		{"bad email", "not-an-email", "long-enough", http.StatusBadRequest},
		{"short password", "new@example.com", "short", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/auth", map[string]any{
				"action":   "signup",
				"email":    tt.email,
				"password": tt.password,
				"name":     "Someone",
			})
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestAnalysisInvalidTimeframe(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/analysis", map[string]any{
		"action":    "getStatistics",
		"token":     "user-token",
		"timeframe": "hourly",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAnalysisTotals(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/analysis", map[string]any{
		"action": "getTotalIncomeAndExpenses",
		"token":  "user-token",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeResponse(t, rec)
	if body["totalIncome"] != "50.00" || body["totalExpense"] != "12.50" {
		t.Errorf("totals = %v / %v, want 50.00 / 12.50", body["totalIncome"], body["totalExpense"])
	}
}

func TestAdminRoutesGated(t *testing.T) {
	s, _, _ := newTestServer(t)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"plain user", "user-token", http.StatusForbidden},
		{"admin", "admin-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/overview", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			s.Server.Handler.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestChat(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/chat", map[string]any{
		"token":    "user-token",
		"question": "how much did I spend on rent?",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeResponse(t, rec)
	if got, _ := body["answer"].(string); !strings.Contains(got, "rent") {
		t.Errorf("answer = %q, want it to echo the question", got)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/chat", map[string]any{
		"token":    "user-token",
		"question": "   ",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank question status = %d, want 400", rec.Code)
	}
}

func TestUpcomingEventsInvalidWindow(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/events", map[string]any{
		"action": "getUpcomingEvents",
		"token":  "user-token",
		"from":   "2026-04-30",
		"until":  "2026-04-01",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateEvent(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPut, "/api/events", map[string]any{
		"action": "updateEvent",
		"token":  "user-token",
		"id":     3,
		"title":  "Dentist (moved)",
		"date":   "2026-04-17",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPut, "/api/events", map[string]any{
		"action": "updateEvent",
		"token":  "user-token",
		"id":     3,
		"title":  "  ",
		"date":   "2026-04-17",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for blank title", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s, _, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}
