package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
)

// SubscriptionStore is the persistence port the service writes through.
// The SQLite repository implements it.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, s core.Subscription) error
	GetSubscription(ctx context.Context, userID, id string) (core.Subscription, error)
	ListSubscriptions(ctx context.Context, userID string) ([]core.Subscription, error)
	UpdateSubscription(ctx context.Context, s core.Subscription) error
	DeleteSubscription(ctx context.Context, userID, id string) error
	SetSubscriptionActive(ctx context.Context, userID, id string, active bool) error
}

// SyncPublisher pushes change notifications to the sync queue.
// *amqp.Client implements it.
type SyncPublisher interface {
	PublishSubscriptionSync(ctx context.Context, msg *amqp.SubscriptionSyncMessage) error
}

// SubscriptionService orchestrates subscription writes across SQLite and
// the AMQP sync queue.
type SubscriptionService struct {
	store     SubscriptionStore
	publisher SyncPublisher
}

func NewSubscriptionService(store SubscriptionStore, publisher SyncPublisher) *SubscriptionService {
	return &SubscriptionService{
		store:     store,
		publisher: publisher,
	}
}

// SubscriptionInput carries the user-editable fields of a subscription.
type SubscriptionInput struct {
	Name        string
	Price       core.Money
	Cycle       core.BillingCycle
	Category    core.Category
	NextBilling core.Date
	Description string
	Logo        string
}

// Create validates and saves a new subscription, then publishes a sync
// message. A billing date in the past is rolled forward month by month
// until it lands today or later.
func (s *SubscriptionService) Create(ctx context.Context, userID string, in SubscriptionInput) (core.Subscription, error) {
	now := time.Now().UTC()
	sub := core.Subscription{
		ID:          ulid.Make().String(),
		UserID:      userID,
		Name:        in.Name,
		Price:       in.Price,
		Cycle:       in.Cycle,
		Category:    in.Category,
		NextBilling: rollForward(in.NextBilling, core.DateOf(now)),
		Active:      true,
		Description: in.Description,
		Logo:        in.Logo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}

	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return core.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}

	s.publishSync(ctx, amqp.NewSubscriptionSyncMessage(sub.ID, 1))
	return sub, nil
}

// Update applies the input to an existing subscription.
func (s *SubscriptionService) Update(ctx context.Context, userID, id string, in SubscriptionInput) (core.Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, userID, id)
	if err != nil {
		return core.Subscription{}, err
	}

	sub.Name = in.Name
	sub.Price = in.Price
	sub.Cycle = in.Cycle
	sub.Category = in.Category
	sub.NextBilling = in.NextBilling
	sub.Description = in.Description
	sub.Logo = in.Logo
	sub.UpdatedAt = time.Now().UTC()

	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}

	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		return core.Subscription{}, fmt.Errorf("update subscription: %w", err)
	}

	// Version 0 is advisory, the worker always reads the latest row.
	s.publishSync(ctx, amqp.NewSubscriptionSyncMessage(sub.ID, 0))
	return sub, nil
}

// Delete soft-deletes the subscription and tells the worker to remove
// the mirror entry.
func (s *SubscriptionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteSubscription(ctx, userID, id); err != nil {
		return err
	}
	s.publishSync(ctx, amqp.NewSubscriptionDeleteMessage(id, 0))
	return nil
}

// SetActive pauses or resumes a subscription.
func (s *SubscriptionService) SetActive(ctx context.Context, userID, id string, active bool) error {
	if err := s.store.SetSubscriptionActive(ctx, userID, id, active); err != nil {
		return err
	}
	s.publishSync(ctx, amqp.NewSubscriptionSyncMessage(id, 0))
	return nil
}

func (s *SubscriptionService) Get(ctx context.Context, userID, id string) (core.Subscription, error) {
	return s.store.GetSubscription(ctx, userID, id)
}

func (s *SubscriptionService) List(ctx context.Context, userID string) ([]core.Subscription, error) {
	return s.store.ListSubscriptions(ctx, userID)
}

func (s *SubscriptionService) publishSync(ctx context.Context, msg *amqp.SubscriptionSyncMessage) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Sync publisher not available, skipping sync message",
			"subscription_id", msg.ID)
		return
	}
	// A failed publish never fails the request, the row is saved locally
	// and the pending sync scan catches up later.
	if err := s.publisher.PublishSubscriptionSync(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"subscription_id", msg.ID, "error", err)
	}
}

// rollForward applies one-month advances until the date is not in the
// past. Zero dates pass through so validation reports them.
func rollForward(d, today core.Date) core.Date {
	for {
		next := core.AdvanceIfPast(d, today)
		if next == d {
			return d
		}
		d = next
	}
}
