package services

import (
	"context"
	"fmt"
	"log/slog"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
)

// RenewalStore is the slice of the repository the renewal processor
// needs.
type RenewalStore interface {
	ListActiveSubscriptions(ctx context.Context) ([]core.Subscription, error)
	UpdateNextBilling(ctx context.Context, id string, next core.Date) error
}

// RenewalProcessor rolls overdue billing dates forward and surfaces
// subscriptions renewing inside the alert window.
type RenewalProcessor struct {
	store      RenewalStore
	publisher  SyncPublisher
	windowDays int
}

func NewRenewalProcessor(store RenewalStore, publisher SyncPublisher, windowDays int) *RenewalProcessor {
	return &RenewalProcessor{
		store:      store,
		publisher:  publisher,
		windowDays: windowDays,
	}
}

// ProcessRenewals advances every overdue billing date by whole months
// until it reaches today or later, then reports upcoming renewals.
// Per-subscription failures are logged and skipped so one bad row never
// stalls the rest.
func (p *RenewalProcessor) ProcessRenewals(ctx context.Context, today core.Date) (int, []core.RenewalAlert, error) {
	subs, err := p.store.ListActiveSubscriptions(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("list active subscriptions: %w", err)
	}

	slog.InfoContext(ctx, "Processing renewals",
		"total_active", len(subs),
		"processing_date", today.String())

	advanced := 0
	for i, sub := range subs {
		next := rollForward(sub.NextBilling, today)
		if next == sub.NextBilling {
			continue
		}

		if err := p.store.UpdateNextBilling(ctx, sub.ID, next); err != nil {
			slog.ErrorContext(ctx, "Failed to advance billing date",
				"subscription_id", sub.ID,
				"name", sub.Name,
				"error", err)
			continue
		}

		subs[i].NextBilling = next
		advanced++
		slog.InfoContext(ctx, "Advanced billing date",
			"subscription_id", sub.ID,
			"name", sub.Name,
			"from", sub.NextBilling.String(),
			"to", next.String())

		if p.publisher != nil {
			if err := p.publisher.PublishSubscriptionSync(ctx, amqp.NewSubscriptionSyncMessage(sub.ID, 0)); err != nil {
				slog.ErrorContext(ctx, "Failed to publish sync message",
					"subscription_id", sub.ID, "error", err)
			}
		}
	}

	alerts := core.UpcomingRenewals(subs, p.windowDays, today)
	for _, a := range alerts {
		slog.InfoContext(ctx, "Upcoming renewal",
			"subscription_id", a.Subscription.ID,
			"name", a.Subscription.Name,
			"days_until", a.DaysUntil,
			"next_billing", a.Subscription.NextBilling.String())
	}

	slog.InfoContext(ctx, "Renewal processing complete",
		"advanced", advanced,
		"alerts", len(alerts))

	return advanced, alerts, nil
}
