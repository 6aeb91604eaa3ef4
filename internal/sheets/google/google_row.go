package google

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"subtrack/internal/core"
)

// Row layout: A=id, B=user_id, C=name, D=price_cents, E=billing_cycle,
// F=category, G=next_billing_date, H=active, I=description, J=logo.

func subscriptionToRow(s core.Subscription) []any {
	return []any{
		s.ID,
		s.UserID,
		s.Name,
		s.Price.Cents,
		string(s.Cycle),
		string(s.Category),
		s.NextBilling.String(),
		s.Active,
		s.Description,
		s.Logo,
	}
}

func rowToSubscription(row []any) (core.Subscription, error) {
	cols := toStrings(row)
	if len(cols) < 8 {
		return core.Subscription{}, errors.New("row too short")
	}
	if cols[0] == "" {
		return core.Subscription{}, errors.New("empty id")
	}

	cents, err := strconv.ParseInt(cols[3], 10, 64)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("price %q: %w", cols[3], err)
	}
	cycle, err := core.ParseCycle(cols[4])
	if err != nil {
		return core.Subscription{}, fmt.Errorf("cycle %q: %w", cols[4], err)
	}
	next, err := core.ParseDate(cols[6])
	if err != nil {
		return core.Subscription{}, fmt.Errorf("next billing date %q: %w", cols[6], err)
	}
	active, err := parseBool(cols[7])
	if err != nil {
		return core.Subscription{}, fmt.Errorf("active %q: %w", cols[7], err)
	}

	s := core.Subscription{
		ID:          cols[0],
		UserID:      cols[1],
		Name:        cols[2],
		Price:       core.Money{Cents: cents},
		Cycle:       cycle,
		Category:    core.ParseCategory(cols[5]),
		NextBilling: next,
		Active:      active,
	}
	if len(cols) > 8 {
		s.Description = cols[8]
	}
	if len(cols) > 9 {
		s.Logo = cols[9]
	}
	return s, nil
}

// parseBool accepts Go bools plus what Sheets renders for checkbox cells.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("not a bool: %q", s)
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
