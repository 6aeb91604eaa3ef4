package core

import (
	"errors"
	"testing"
)

func TestDaysUntil(t *testing.T) {
	ref := NewDate(2025, 3, 10)

	cases := []struct {
		name   string
		target Date
		want   int
	}{
		{"same day", NewDate(2025, 3, 10), 0},
		{"tomorrow", NewDate(2025, 3, 11), 1},
		{"next week", NewDate(2025, 3, 17), 7},
		{"overdue", NewDate(2025, 3, 9), -1},
		{"across month boundary", NewDate(2025, 4, 2), 23},
		{"across year boundary", NewDate(2026, 1, 1), 297},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DaysUntil(tc.target, ref)
			if err != nil {
				t.Fatalf("DaysUntil() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("DaysUntil() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestDaysUntilInvalidDate(t *testing.T) {
	ref := NewDate(2025, 3, 10)
	if _, err := DaysUntil(Date{}, ref); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate for zero target, got %v", err)
	}
	if _, err := DaysUntil(ref, Date{}); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate for zero reference, got %v", err)
	}
}

func TestAdvanceIfPast(t *testing.T) {
	ref := NewDate(2025, 3, 10)

	cases := []struct {
		name string
		d    Date
		want Date
	}{
		{"future date unchanged", NewDate(2025, 3, 20), NewDate(2025, 3, 20)},
		{"today unchanged", NewDate(2025, 3, 10), NewDate(2025, 3, 10)},
		{"past date advances one month", NewDate(2025, 2, 15), NewDate(2025, 3, 15)},
		{"december rolls into january", NewDate(2024, 12, 5), NewDate(2025, 1, 5)},
		{"jan 31 clamps to feb 28", NewDate(2025, 1, 31), NewDate(2025, 2, 28)},
		{"jan 31 clamps to feb 29 in leap year", NewDate(2024, 1, 31), NewDate(2024, 2, 29)},
		{"mar 31 clamps to apr 30", NewDate(2024, 3, 31), NewDate(2024, 4, 30)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AdvanceIfPast(tc.d, ref)
			if !got.Equal(tc.want.Time) {
				t.Errorf("AdvanceIfPast(%s) = %s, want %s", tc.d, got, tc.want)
			}
		})
	}
}

func TestAdvanceIfPastIdempotent(t *testing.T) {
	ref := NewDate(2025, 3, 10)
	d := NewDate(2025, 2, 20)

	once := AdvanceIfPast(d, ref)
	if once.Time.Before(ref.Time) {
		t.Fatalf("advanced date %s still before reference %s", once, ref)
	}
	twice := AdvanceIfPast(once, ref)
	if !twice.Equal(once.Time) {
		t.Errorf("second application changed the date: %s -> %s", once, twice)
	}
}
