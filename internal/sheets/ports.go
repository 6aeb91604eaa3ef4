package sheets

import (
	"context"

	"subtrack/internal/core"
)

// Ports for outbound adapters.
type (
	SubscriptionWriter interface {
		// Upsert writes the subscription to the remote store, replacing
		// any existing row with the same ID. Returns a row reference.
		Upsert(ctx context.Context, s core.Subscription) (rowRef string, err error)
	}

	SubscriptionDeleter interface {
		Delete(ctx context.Context, id string) error
	}

	// SubscriptionLister returns a user's subscriptions from the remote store.
	SubscriptionLister interface {
		ListSubscriptions(ctx context.Context, userID string) ([]core.Subscription, error)
	}
)
