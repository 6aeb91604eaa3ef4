package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"45.90", 4590, true},
		{"45,90", 4590, true},
		{"0.01", 1, true},
		{"0", 0, true}, // zero-price subscriptions are allowed
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestNormalization(t *testing.T) {
	cases := []struct {
		name        string
		price       int64
		cycle       BillingCycle
		wantMonthly int64
		wantYearly  int64
	}{
		{"monthly price", 4590, Monthly, 4590, 55080},
		{"yearly price divisible", 12000, Yearly, 1000, 12000},
		{"yearly price rounds half-up", 8990, Yearly, 749, 8990}, // 749.16 -> 749
		{"zero price", 0, Monthly, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := Subscription{Price: Money{Cents: tc.price}, Cycle: tc.cycle}
			if got := sub.MonthlyCents(); got != tc.wantMonthly {
				t.Errorf("MonthlyCents() = %d, want %d", got, tc.wantMonthly)
			}
			if got := sub.YearlyCents(); got != tc.wantYearly {
				t.Errorf("YearlyCents() = %d, want %d", got, tc.wantYearly)
			}
		})
	}
}

// The two normalizations must agree: a monthly price scaled to a year is
// exactly twelve monthly equivalents.
func TestNormalizationConsistency(t *testing.T) {
	for _, cents := range []int64{0, 1, 999, 4590, 100000} {
		sub := Subscription{Price: Money{Cents: cents}, Cycle: Monthly}
		if sub.MonthlyCents()*12 != sub.YearlyCents() {
			t.Errorf("monthly %d: MonthlyCents()*12 = %d, want %d",
				cents, sub.MonthlyCents()*12, sub.YearlyCents())
		}
	}
}

func TestMoneyUnits(t *testing.T) {
	if got := (Money{Cents: 4590}).Units(); got != 45.90 {
		t.Fatalf("Units() = %v, want 45.90", got)
	}
}
