package core

import "testing"

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		name     string
		cents    int64
		currency string
		locale   string
		want     string
	}{
		{"brl pt-BR", 4590, "BRL", "pt-BR", "R$ 45,90"},
		{"usd en-US", 123450, "USD", "en-US", "$ 1,234.50"},
		{"eur de-DE", 999, "EUR", "de-DE", "€ 9,99"},
		{"thousands pt-BR", 123456789, "BRL", "pt-BR", "R$ 1.234.567,89"},
		{"unknown locale falls back", 4590, "BRL", "xx-XX", "R$ 45.90"},
		{"unsupported currency falls back to BRL", 123450, "XYZ", "pt-BR", "R$ 1.234,50"},
		{"lowercase code accepted", 100, "usd", "en-US", "$ 1.00"},
		{"zero", 0, "BRL", "pt-BR", "R$ 0,00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatMoney(Money{Cents: tc.cents}, tc.currency, tc.locale); got != tc.want {
				t.Errorf("FormatMoney() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatDate(t *testing.T) {
	d := NewDate(2025, 12, 3)
	cases := []struct {
		locale string
		want   string
	}{
		{"pt-BR", "03/12/2025"},
		{"en-US", "12/03/2025"},
		{"de-DE", "03.12.2025"},
		{"xx-XX", "03/12/2025"}, // deterministic fallback
	}
	for _, tc := range cases {
		if got := FormatDate(d, tc.locale); got != tc.want {
			t.Errorf("FormatDate(%s) = %q, want %q", tc.locale, got, tc.want)
		}
	}
	if got := FormatDate(Date{}, "pt-BR"); got != "invalid date" {
		t.Errorf("zero date = %q, want marker string", got)
	}
}
