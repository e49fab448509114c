package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "dot separator", input: "12.34", want: 1234},
		{name: "comma separator", input: "12,34", want: 1234},
		{name: "no fraction", input: "42", want: 4200},
		{name: "single fractional digit", input: "12.3", want: 1230},
		{name: "third digit rounds down", input: "12.344", want: 1234},
		{name: "third digit rounds up", input: "12.345", want: 1235},
		{name: "leading dot", input: ".75", want: 75},
		{name: "surrounding spaces", input: "  8.00  ", want: 800},
		{name: "empty", input: "", wantErr: true},
		{name: "negative", input: "-5", wantErr: true},
		{name: "explicit plus", input: "+5", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "letters", input: "ten", wantErr: true},
		{name: "two separators", input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatSigned(t *testing.T) {
	tests := []struct {
		name  string
		money Money
		typ   TransactionType
		want  string
	}{
		{name: "expense is negative", money: Money{Cents: 1234}, typ: Expense, want: "-12.34"},
		{name: "income is positive", money: Money{Cents: 1234}, typ: Income, want: "12.34"},
		{name: "sub-unit expense", money: Money{Cents: 5}, typ: Expense, want: "-0.05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSigned(tt.money, tt.typ); got != tt.want {
				t.Errorf("FormatSigned() = %q, want %q", got, tt.want)
			}
		})
	}
}
