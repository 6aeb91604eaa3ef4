package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
	"subtrack/internal/sheets"
	"subtrack/internal/storage"
)

// SyncWorker mirrors subscription changes from SQLite into the remote
// backend.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	writer    sheets.SubscriptionWriter
	deleter   sheets.SubscriptionDeleter
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, writer sheets.SubscriptionWriter, deleter sheets.SubscriptionDeleter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		writer:    writer,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SubscriptionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"subscription_id", msg.ID,
		"version", msg.Version,
		"deleted", msg.Deleted)

	if msg.Deleted {
		return w.mirrorDelete(ctx, msg.ID)
	}

	sub, deleted, err := w.storage.GetSubscriptionByID(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		// Row vanished between publish and delivery, nothing to mirror.
		slog.WarnContext(ctx, "Subscription gone, skipping sync", "subscription_id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get subscription from storage: %w", err)
	}
	if deleted {
		return w.mirrorDelete(ctx, msg.ID)
	}

	return w.mirrorUpsert(ctx, sub)
}

func (w *SyncWorker) mirrorUpsert(ctx context.Context, sub core.Subscription) error {
	ref, err := w.writer.Upsert(ctx, sub)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, sub.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error",
				"subscription_id", sub.ID, "error", markErr)
		}
		return fmt.Errorf("upsert to backend: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, sub.ID); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}

	slog.InfoContext(ctx, "Subscription mirrored",
		"subscription_id", sub.ID,
		"sheets_ref", ref)
	return nil
}

func (w *SyncWorker) mirrorDelete(ctx context.Context, id string) error {
	if w.deleter == nil {
		slog.WarnContext(ctx, "No deleter configured, skipping mirror deletion",
			"subscription_id", id)
		return nil
	}
	if err := w.deleter.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete from backend: %w", err)
	}
	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// The mirror row is gone, a stale local flag is harmless.
		slog.WarnContext(ctx, "Failed to mark deleted subscription synced",
			"subscription_id", id, "error", err)
	}
	return nil
}

// CatchUp scans for rows still marked pending and re-mirrors them. Run
// periodically so changes survive lost AMQP messages.
func (w *SyncWorker) CatchUp(ctx context.Context) (int, error) {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending sync subscriptions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Catching up pending syncs", "count", len(pending))

	processed := 0
	for _, p := range pending {
		msg := amqp.NewSubscriptionSyncMessage(p.ID, p.Version)
		msg.Deleted = p.Deleted
		if err := w.HandleSyncMessage(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Catch-up sync failed",
				"subscription_id", p.ID, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}
