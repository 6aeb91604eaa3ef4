package core

import (
	"log/slog"
	"sort"
	"strings"
)

// DefaultRenewalWindow is the lookahead period, in days, used to flag
// subscriptions as upcoming.
const DefaultRenewalWindow = 7

// RenewalAlert pairs a subscription with how many days remain until it
// next charges.
type RenewalAlert struct {
	Subscription Subscription
	DaysUntil    int
}

// UpcomingRenewals selects active subscriptions that renew within the
// window, today included. Overdue subscriptions are excluded here but
// remain visible in listings. The result is ordered by days ascending,
// ties broken by name, case-insensitive. Records with an invalid billing
// date are logged and skipped so one bad record never blocks the rest.
func UpcomingRenewals(subs []Subscription, windowDays int, now Date) []RenewalAlert {
	if windowDays < 0 {
		windowDays = DefaultRenewalWindow
	}
	var alerts []RenewalAlert
	for _, sub := range subs {
		if !sub.Active {
			continue
		}
		days, err := DaysUntil(sub.NextBilling, now)
		if err != nil {
			slog.Warn("Skipping subscription with invalid billing date",
				"subscription_id", sub.ID,
				"name", sub.Name,
				"error", err)
			continue
		}
		if days < 0 || days > windowDays {
			continue
		}
		alerts = append(alerts, RenewalAlert{Subscription: sub, DaysUntil: days})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].DaysUntil != alerts[j].DaysUntil {
			return alerts[i].DaysUntil < alerts[j].DaysUntil
		}
		return strings.ToLower(alerts[i].Subscription.Name) < strings.ToLower(alerts[j].Subscription.Name)
	})
	return alerts
}
