package core

import "testing"

func dueIn(name string, days int, now Date) Subscription {
	s := sub(name, 1000, Monthly, CategoryStreaming, true)
	s.NextBilling = DateOf(now.AddDate(0, 0, days))
	return s
}

func TestUpcomingRenewalsWindow(t *testing.T) {
	now := NewDate(2025, 6, 10)
	subs := []Subscription{
		dueIn("overdue", -1, now),
		dueIn("today", 0, now),
		dueIn("soon", 3, now),
		dueIn("edge", 7, now),
		dueIn("beyond", 8, now),
	}

	alerts := UpcomingRenewals(subs, 7, now)
	if len(alerts) != 3 {
		t.Fatalf("got %d alerts, want 3", len(alerts))
	}
	wantDays := []int{0, 3, 7}
	wantNames := []string{"today", "soon", "edge"}
	for i := range alerts {
		if alerts[i].DaysUntil != wantDays[i] {
			t.Errorf("alert[%d].DaysUntil = %d, want %d", i, alerts[i].DaysUntil, wantDays[i])
		}
		if alerts[i].Subscription.Name != wantNames[i] {
			t.Errorf("alert[%d] = %q, want %q", i, alerts[i].Subscription.Name, wantNames[i])
		}
	}
}

func TestUpcomingRenewalsTieBreak(t *testing.T) {
	now := NewDate(2025, 6, 10)
	subs := []Subscription{
		dueIn("zulu", 2, now),
		dueIn("Alpha", 2, now),
		dueIn("mike", 2, now),
	}

	alerts := UpcomingRenewals(subs, 7, now)
	want := []string{"Alpha", "mike", "zulu"}
	for i, name := range want {
		if alerts[i].Subscription.Name != name {
			t.Errorf("alert[%d] = %q, want %q (case-insensitive name order)",
				i, alerts[i].Subscription.Name, name)
		}
	}
}

func TestUpcomingRenewalsFiltering(t *testing.T) {
	now := NewDate(2025, 6, 10)

	inactive := dueIn("inactive", 1, now)
	inactive.Active = false

	invalid := sub("invalid date", 1000, Monthly, CategoryOther, true)
	invalid.NextBilling = Date{}

	alerts := UpcomingRenewals([]Subscription{inactive, invalid, dueIn("ok", 1, now)}, 7, now)
	if len(alerts) != 1 || alerts[0].Subscription.Name != "ok" {
		t.Fatalf("got %v, want only the valid active subscription", alerts)
	}
}

func TestUpcomingRenewalsEmpty(t *testing.T) {
	if got := UpcomingRenewals(nil, 7, NewDate(2025, 6, 10)); len(got) != 0 {
		t.Fatalf("empty input produced %d alerts", len(got))
	}
}
