package core

import (
	"fmt"
	"log/slog"
	"strings"
)

// DefaultCurrency is the fallback when an unsupported ISO 4217 code is
// requested. Formatting degrades, it never fails.
const DefaultCurrency = "BRL"

// DefaultLocale drives formatting when no locale is configured.
const DefaultLocale = "pt-BR"

var currencySymbols = map[string]string{
	"BRL": "R$",
	"USD": "$",
	"EUR": "€",
}

type localeSpec struct {
	decimalSep  string
	thousandSep string
	dateLayout  string
}

var locales = map[string]localeSpec{
	"pt-BR": {decimalSep: ",", thousandSep: ".", dateLayout: "02/01/2006"},
	"en-US": {decimalSep: ".", thousandSep: ",", dateLayout: "01/02/2006"},
	"de-DE": {decimalSep: ",", thousandSep: ".", dateLayout: "02.01.2006"},
}

// fallback formatting when the locale is unknown: DD/MM/YYYY dates and a
// dot-decimal amount. Output is deterministic and never empty.
var fallbackLocale = localeSpec{decimalSep: ".", thousandSep: "", dateLayout: "02/01/2006"}

// FormatMoney renders an amount under a currency code and locale.
// Unsupported codes fall back to DefaultCurrency; the degradation is
// logged so callers can detect it without losing the value.
func FormatMoney(m Money, currency, locale string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	symbol, ok := currencySymbols[code]
	if !ok {
		slog.Warn("Unsupported currency code, falling back to default",
			"currency", currency,
			"fallback", DefaultCurrency)
		symbol = currencySymbols[DefaultCurrency]
	}
	spec, ok := locales[locale]
	if !ok {
		spec = fallbackLocale
	}
	return symbol + " " + formatCents(m.Cents, spec)
}

// FormatDate renders a day-precision date for the locale, with a fixed
// DD/MM/YYYY fallback for unknown locales. Invalid dates surface as a
// marker string rather than an error.
func FormatDate(d Date, locale string) string {
	if d.IsZero() {
		return "invalid date"
	}
	spec, ok := locales[locale]
	if !ok {
		spec = fallbackLocale
	}
	return d.Format(spec.dateLayout)
}

func formatCents(cents int64, spec localeSpec) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	units := cents / 100
	frac := cents % 100
	unitStr := fmt.Sprintf("%d", units)
	if spec.thousandSep != "" {
		unitStr = groupThousands(unitStr, spec.thousandSep)
	}
	return fmt.Sprintf("%s%s%s%02d", sign, unitStr, spec.decimalSep, frac)
}

func groupThousands(digits, sep string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
