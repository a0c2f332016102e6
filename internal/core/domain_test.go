package core

import "testing"

func TestOperationValidate(t *testing.T) {
	good := Operation{
		Kind:     Expense,
		Amount:   Money{Cents: 100},
		Currency: "USD",
		Category: "🍔 Food",
		Date:     NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	income := Operation{
		Kind:     Income,
		Amount:   Money{Cents: 100},
		Currency: "USD",
		Date:     NewDate(2025, 1, 1),
	}
	if err := income.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		name string
		op   Operation
	}{
		{"bad kind", Operation{Kind: "transfer", Amount: Money{Cents: 1}, Currency: "USD", Date: NewDate(2025, 1, 1)}},
		{"zero amount", Operation{Kind: Income, Amount: Money{}, Currency: "USD", Date: NewDate(2025, 1, 1)}},
		{"empty currency", Operation{Kind: Income, Amount: Money{Cents: 1}, Currency: " ", Date: NewDate(2025, 1, 1)}},
		{"zero date", Operation{Kind: Income, Amount: Money{Cents: 1}, Currency: "USD"}},
		{"expense without category", Operation{Kind: Expense, Amount: Money{Cents: 1}, Currency: "USD", Date: NewDate(2025, 1, 1)}},
		{"income with category", Operation{Kind: Income, Amount: Money{Cents: 1}, Currency: "USD", Category: "x", Date: NewDate(2025, 1, 1)}},
	}
	for _, tc := range bads {
		if err := tc.op.Validate(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestNormalizeCurrency(t *testing.T) {
	cases := []struct{ in, want string }{
		{"usd", "USD"},
		{" eur ", "EUR"},
		{"USD", "USD"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeCurrency(tc.in); got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
