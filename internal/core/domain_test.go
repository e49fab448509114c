package core

import (
	"testing"
	"time"
)

func TestTransaction_Validate(t *testing.T) {
	valid := Transaction{
		UserID:     "u1",
		Type:       Expense,
		CategoryID: 3,
		Name:       "Rent",
		Amount:     Money{Cents: 120000},
		Date:       NewDate(2024, 1, 31),
	}

	tests := []struct {
		name    string
		mutate  func(tx Transaction) Transaction
		wantErr bool
	}{
		{
			name:    "valid plain transaction",
			mutate:  func(tx Transaction) Transaction { return tx },
			wantErr: false,
		},
		{
			name: "valid recurring template",
			mutate: func(tx Transaction) Transaction {
				tx.Recurrence = &Recurrence{
					Period:        Monthly,
					TimeOfDay:     "09:00",
					NextExecution: NewDate(2024, 2, 1),
				}
				return tx
			},
			wantErr: false,
		},
		{
			name:    "invalid type",
			mutate:  func(tx Transaction) Transaction { tx.Type = "transfer"; return tx },
			wantErr: true,
		},
		{
			name:    "empty name",
			mutate:  func(tx Transaction) Transaction { tx.Name = "   "; return tx },
			wantErr: true,
		},
		{
			name:    "negative amount",
			mutate:  func(tx Transaction) Transaction { tx.Amount = Money{Cents: -1}; return tx },
			wantErr: true,
		},
		{
			name:    "missing category",
			mutate:  func(tx Transaction) Transaction { tx.CategoryID = 0; return tx },
			wantErr: true,
		},
		{
			name:    "zero date",
			mutate:  func(tx Transaction) Transaction { tx.Date = Date{}; return tx },
			wantErr: true,
		},
		{
			name: "recurrence with bad period",
			mutate: func(tx Transaction) Transaction {
				tx.Recurrence = &Recurrence{Period: "fortnightly", TimeOfDay: "09:00", NextExecution: NewDate(2024, 2, 1)}
				return tx
			},
			wantErr: true,
		},
		{
			name: "recurrence with bad time of day",
			mutate: func(tx Transaction) Transaction {
				tx.Recurrence = &Recurrence{Period: Daily, TimeOfDay: "25:99", NextExecution: NewDate(2024, 2, 1)}
				return tx
			},
			wantErr: true,
		},
		{
			name: "recurrence with zero next execution",
			mutate: func(tx Transaction) Transaction {
				tx.Recurrence = &Recurrence{Period: Daily, TimeOfDay: "09:00"}
				return tx
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(valid).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMoney_Signed(t *testing.T) {
	m := Money{Cents: 1234}
	if got := m.Signed(Expense); got != -1234 {
		t.Errorf("Signed(Expense) = %d, want -1234", got)
	}
	if got := m.Signed(Income); got != 1234 {
		t.Errorf("Signed(Income) = %d, want 1234", got)
	}
}

func TestValidTimeOfDay(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"00:00", true},
		{"09:30", true},
		{"23:59", true},
		{"24:00", false},
		{"9:30", false},
		{"09:60", false},
		{"morning", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := ValidTimeOfDay(tt.value); got != tt.want {
				t.Errorf("ValidTimeOfDay(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{
			name:    "valid one-off event",
			event:   Event{Title: "Dentist", Date: NewDate(2024, 3, 5)},
			wantErr: false,
		},
		{
			name:    "valid recurring event with time",
			event:   Event{Title: "Standup", Date: NewDate(2024, 3, 5), TimeOfDay: "10:00", Period: Weekly},
			wantErr: false,
		},
		{
			name:    "empty title",
			event:   Event{Title: "", Date: NewDate(2024, 3, 5)},
			wantErr: true,
		},
		{
			name:    "bad period",
			event:   Event{Title: "Standup", Date: NewDate(2024, 3, 5), Period: "biweekly"},
			wantErr: true,
		},
		{
			name:    "bad time of day",
			event:   Event{Title: "Standup", Date: NewDate(2024, 3, 5), TimeOfDay: "noon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDateOf_TruncatesToMidnight(t *testing.T) {
	loc := time.FixedZone("ref", 9*3600)
	d := DateOf(time.Date(2024, 5, 17, 14, 33, 12, 99, loc))
	if d.Hour() != 0 || d.Minute() != 0 || d.Second() != 0 || d.Nanosecond() != 0 {
		t.Errorf("DateOf() not midnight-truncated: %v", d)
	}
	if d.Location() != loc {
		t.Errorf("DateOf() changed location: %v", d.Location())
	}
}
