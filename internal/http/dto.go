package http

import (
	"fmt"
	"time"

	"moneta/internal/core"
	"moneta/internal/services"
	"moneta/internal/storage"
)

const dateLayout = "2006-01-02"

// formatAmount renders cents as an unsigned decimal string, e.g. "12.34".
func formatAmount(m core.Money) string {
	return fmt.Sprintf("%d.%02d", m.Cents/100, m.Cents%100)
}

type transactionJSON struct {
	ID                int64  `json:"id"`
	Type              string `json:"type"`
	CategoryID        int64  `json:"categoryId"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	Amount            string `json:"amount"`
	Date              string `json:"date"`
	IsRecurring       bool   `json:"isRecurring"`
	RecurringPeriod   string `json:"recurringPeriod,omitempty"`
	Time              string `json:"time,omitempty"`
	NextExecutionDate string `json:"nextExecutionDate,omitempty"`
	CreatedAt         string `json:"createdAt,omitempty"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:          t.ID,
		Type:        string(t.Type),
		CategoryID:  t.CategoryID,
		Name:        t.Name,
		Description: t.Description,
		Amount:      formatAmount(t.Amount),
		Date:        t.Date.Format(dateLayout),
		IsRecurring: t.IsRecurring(),
	}
	if t.Recurrence != nil {
		out.RecurringPeriod = string(t.Recurrence.Period)
		out.Time = t.Recurrence.TimeOfDay
		out.NextExecutionDate = t.Recurrence.NextExecution.Format(dateLayout)
	}
	if !t.CreatedAt.IsZero() {
		out.CreatedAt = t.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func toTransactionListJSON(ts []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTransactionJSON(t))
	}
	return out
}

// transactionPayload is the write-side shape shared by add and update.
type transactionPayload struct {
	ID                int64  `json:"id"`
	Type              string `json:"type"`
	CategoryID        int64  `json:"categoryId"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Amount            string `json:"amount"`
	Date              string `json:"date"`
	IsRecurring       bool   `json:"isRecurring"`
	RecurringPeriod   string `json:"recurringPeriod"`
	Time              string `json:"time"`
	NextExecutionDate string `json:"nextExecutionDate"`
}

// toTransaction converts the payload into a domain transaction for the given
// owner. Validation proper happens in the service; this only translates the
// wire representation.
func (p transactionPayload) toTransaction(userID string) (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(p.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", p.Amount, err)
	}
	date, err := parseDate(p.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date %q: %w", p.Date, err)
	}
	t := core.Transaction{
		ID:          p.ID,
		UserID:      userID,
		Type:        core.TransactionType(p.Type),
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: p.Description,
		Amount:      core.Money{Cents: cents},
		Date:        date,
	}
	if p.IsRecurring {
		next, err := parseDate(p.NextExecutionDate)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("nextExecutionDate %q: %w", p.NextExecutionDate, err)
		}
		t.Recurrence = &core.Recurrence{
			Period:        core.RecurringPeriod(p.RecurringPeriod),
			TimeOfDay:     p.Time,
			NextExecution: next,
		}
	}
	return t, nil
}

func parseDate(s string) (core.Date, error) {
	parsed, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, err
	}
	return core.DateOf(parsed), nil
}

type categoryJSON struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	Icon      string `json:"icon,omitempty"`
	IsDefault bool   `json:"isDefault"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{
		ID:        c.ID,
		Type:      string(c.Kind),
		Name:      c.Name,
		Icon:      c.Icon,
		IsDefault: c.Default,
	}
}

func toCategoryListJSON(cs []core.Category) []categoryJSON {
	out := make([]categoryJSON, 0, len(cs))
	for _, c := range cs {
		out = append(out, toCategoryJSON(c))
	}
	return out
}

type eventJSON struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Note            string `json:"note,omitempty"`
	Date            string `json:"date"`
	Time            string `json:"time,omitempty"`
	RecurringPeriod string `json:"recurringPeriod,omitempty"`
}

func toEventJSON(e core.Event) eventJSON {
	return eventJSON{
		ID:              e.ID,
		Title:           e.Title,
		Note:            e.Note,
		Date:            e.Date.Format(dateLayout),
		Time:            e.TimeOfDay,
		RecurringPeriod: string(e.Period),
	}
}

type occurrenceJSON struct {
	Event eventJSON `json:"event"`
	Date  string    `json:"date"`
}

func toOccurrenceListJSON(os []services.Occurrence) []occurrenceJSON {
	out := make([]occurrenceJSON, 0, len(os))
	for _, o := range os {
		out = append(out, occurrenceJSON{
			Event: toEventJSON(o.Event),
			Date:  o.Date.Format(dateLayout),
		})
	}
	return out
}

type bucketJSON struct {
	Label   string `json:"label"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
}

type statisticsJSON struct {
	Timeframe    string       `json:"timeframe"`
	Buckets      []bucketJSON `json:"buckets"`
	TotalIncome  string       `json:"totalIncome"`
	TotalExpense string       `json:"totalExpense"`
}

func toStatisticsJSON(s core.Statistics) statisticsJSON {
	buckets := make([]bucketJSON, 0, len(s.Buckets))
	for _, b := range s.Buckets {
		buckets = append(buckets, bucketJSON{
			Label:   b.Label,
			Income:  formatAmount(b.Income),
			Expense: formatAmount(b.Expense),
		})
	}
	return statisticsJSON{
		Timeframe:    string(s.Timeframe),
		Buckets:      buckets,
		TotalIncome:  formatAmount(s.TotalIncome),
		TotalExpense: formatAmount(s.TotalExpense),
	}
}

type userJSON struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"isAdmin"`
	Verified bool   `json:"verified"`
}

func toUserJSON(u core.User) userJSON {
	return userJSON{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		IsAdmin:  u.Admin,
		Verified: u.Verified,
	}
}

type rollupJSON struct {
	UserID           string `json:"userId"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	TransactionCount int64  `json:"transactionCount"`
	Income           string `json:"income"`
	Expense          string `json:"expense"`
}

func toRollupListJSON(rs []storage.UserRollup) []rollupJSON {
	out := make([]rollupJSON, 0, len(rs))
	for _, r := range rs {
		out = append(out, rollupJSON{
			UserID:           r.UserID,
			Email:            r.Email,
			Name:             r.Name,
			TransactionCount: r.TransactionCount,
			Income:           formatAmount(r.Income),
			Expense:          formatAmount(r.Expense),
		})
	}
	return out
}
