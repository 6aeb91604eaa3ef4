package google

import (
	"testing"

	"subtrack/internal/core"
)

func TestRowRoundTrip(t *testing.T) {
	s := core.Subscription{
		ID:          "01HWABC",
		UserID:      "user-1",
		Name:        "Netflix",
		Price:       core.Money{Cents: 4590},
		Cycle:       core.Monthly,
		Category:    core.CategoryStreaming,
		NextBilling: core.NewDate(2026, 9, 15),
		Active:      true,
		Description: "family plan",
	}

	got, err := rowToSubscription(subscriptionToRow(s))
	if err != nil {
		t.Fatalf("rowToSubscription() error = %v", err)
	}
	if got.ID != s.ID || got.UserID != s.UserID || got.Name != s.Name {
		t.Errorf("identity fields = %+v", got)
	}
	if got.Price.Cents != 4590 || got.Cycle != core.Monthly || got.Category != core.CategoryStreaming {
		t.Errorf("billing fields = %+v", got)
	}
	if got.NextBilling.String() != "2026-09-15" {
		t.Errorf("NextBilling = %s, want 2026-09-15", got.NextBilling)
	}
	if !got.Active || got.Description != "family plan" {
		t.Errorf("active/description = %v %q", got.Active, got.Description)
	}
}

func TestRowToSubscriptionErrors(t *testing.T) {
	tests := []struct {
		name string
		row  []any
	}{
		{"empty row", []any{}},
		{"header row", []any{"id", "user_id", "name", "price_cents", "billing_cycle", "category", "next_billing_date", "active"}},
		{"cleared row", []any{"", "", "", "", "", "", "", ""}},
		{"bad cycle", []any{"a", "u", "Netflix", "4590", "weekly", "streaming", "2026-09-15", "true"}},
		{"bad date", []any{"a", "u", "Netflix", "4590", "monthly", "streaming", "15/09/2026", "true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := rowToSubscription(tt.row); err == nil {
				t.Error("rowToSubscription() expected error")
			}
		})
	}
}

func TestRowUnknownCategoryFallsBack(t *testing.T) {
	row := []any{"a", "u", "Netflix", "4590", "monthly", "crypto", "2026-09-15", "TRUE"}
	got, err := rowToSubscription(row)
	if err != nil {
		t.Fatalf("rowToSubscription() error = %v", err)
	}
	if got.Category != core.CategoryOther {
		t.Errorf("Category = %s, want other", got.Category)
	}
	if !got.Active {
		t.Error("Active = false, want true for TRUE")
	}
}
