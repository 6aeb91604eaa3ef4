package backend

import (
	"context"
	"fmt"
	"log/slog"

	"subtrack/internal/core"
	gsheet "subtrack/internal/sheets/google"
	"subtrack/internal/sheets/memory"
	"subtrack/internal/storage"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite mirror backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: &sqliteMirror{repo: repo},
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context) (*BackendResult, error) {
	cli, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend")

	return &BackendResult{Backend: cli}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend")
	return &BackendResult{Backend: memory.New()}, nil
}

// sqliteMirror adapts the SQLite repository to the mirror ports, backing
// a file-based replica of the primary store.
type sqliteMirror struct {
	repo *storage.SQLiteRepository
}

func (m *sqliteMirror) Upsert(ctx context.Context, s core.Subscription) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	if err := m.repo.UpsertSubscription(ctx, s); err != nil {
		return "", err
	}
	return fmt.Sprintf("sqlite:%s", s.ID), nil
}

func (m *sqliteMirror) Delete(ctx context.Context, id string) error {
	return m.repo.DeleteSubscriptionByID(ctx, id)
}

func (m *sqliteMirror) ListSubscriptions(ctx context.Context, userID string) ([]core.Subscription, error) {
	return m.repo.ListSubscriptions(ctx, userID)
}
