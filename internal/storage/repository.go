package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"subtrack/internal/auth"
	"subtrack/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist or belongs to
// another user.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser implements auth.UserStore.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u auth.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByEmail implements auth.UserStore.
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (auth.User, error) {
	var u auth.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at
		 FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, auth.ErrUserNotFound
	}
	if err != nil {
		return auth.User{}, fmt.Errorf("select user by email: %w", err)
	}
	return u, nil
}

// GetUser implements auth.UserStore.
func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (auth.User, error) {
	var u auth.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at
		 FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, auth.ErrUserNotFound
	}
	if err != nil {
		return auth.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

const subscriptionColumns = `id, user_id, name, price_cents, billing_cycle, category,
	next_billing_date, active, description, logo, created_at, updated_at`

func scanSubscription(row interface{ Scan(...any) error }) (core.Subscription, error) {
	var (
		s           core.Subscription
		cycle       string
		category    string
		nextBilling string
	)
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Price.Cents, &cycle, &category,
		&nextBilling, &s.Active, &s.Description, &s.Logo, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return core.Subscription{}, err
	}

	s.Cycle, err = core.ParseCycle(cycle)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("stored cycle %q: %w", cycle, err)
	}
	s.Category = core.ParseCategory(category)
	s.NextBilling, err = core.ParseDate(nextBilling)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("stored next billing date %q: %w", nextBilling, err)
	}
	return s, nil
}

func (r *SQLiteRepository) CreateSubscription(ctx context.Context, s core.Subscription) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, user_id, name, price_cents, billing_cycle, category,
		 next_billing_date, active, description, logo, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Name, s.Price.Cents, string(s.Cycle), string(s.Category),
		s.NextBilling.String(), s.Active, s.Description, s.Logo, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}

	slog.InfoContext(ctx, "Subscription saved to SQLite",
		"subscription_id", s.ID,
		"name", s.Name,
		"price_cents", s.Price.Cents,
		"cycle", s.Cycle)
	return nil
}

func (r *SQLiteRepository) GetSubscription(ctx context.Context, userID, id string) (core.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions WHERE id = ? AND user_id = ? AND deleted = 0`, id, userID)
	s, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, ErrNotFound
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("select subscription: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) ListSubscriptions(ctx context.Context, userID string) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions WHERE user_id = ? AND deleted = 0
		 ORDER BY name COLLATE NOCASE, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("select subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []core.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

// GetSubscriptionByID fetches a row regardless of owner, including
// soft-deleted ones. The sync worker uses it to mirror changes.
func (r *SQLiteRepository) GetSubscriptionByID(ctx context.Context, id string) (core.Subscription, bool, error) {
	var deleted bool
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+`, deleted
		 FROM subscriptions WHERE id = ?`, id)

	var (
		s           core.Subscription
		cycle       string
		category    string
		nextBilling string
	)
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Price.Cents, &cycle, &category,
		&nextBilling, &s.Active, &s.Description, &s.Logo, &s.CreatedAt, &s.UpdatedAt, &deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, false, ErrNotFound
	}
	if err != nil {
		return core.Subscription{}, false, fmt.Errorf("select subscription by id: %w", err)
	}

	s.Cycle, err = core.ParseCycle(cycle)
	if err != nil {
		return core.Subscription{}, false, fmt.Errorf("stored cycle %q: %w", cycle, err)
	}
	s.Category = core.ParseCategory(category)
	s.NextBilling, err = core.ParseDate(nextBilling)
	if err != nil {
		return core.Subscription{}, false, fmt.Errorf("stored next billing date %q: %w", nextBilling, err)
	}
	return s, deleted, nil
}

// ListActiveSubscriptions returns every active subscription across all
// users. Used by the renewal worker.
func (r *SQLiteRepository) ListActiveSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions WHERE active = 1 AND deleted = 0
		 ORDER BY next_billing_date, id`)
	if err != nil {
		return nil, fmt.Errorf("select active subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []core.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

// UpdateNextBilling advances a subscription's billing date and marks it
// for re-sync.
func (r *SQLiteRepository) UpdateNextBilling(ctx context.Context, id string, next core.Date) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions
		 SET next_billing_date = ?, sync_status = 'pending', version = version + 1, updated_at = ?
		 WHERE id = ? AND deleted = 0`,
		next.String(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update next billing date: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) UpdateSubscription(ctx context.Context, s core.Subscription) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions
		 SET name = ?, price_cents = ?, billing_cycle = ?, category = ?,
		     next_billing_date = ?, active = ?, description = ?, logo = ?,
		     sync_status = 'pending', version = version + 1, updated_at = ?
		 WHERE id = ? AND user_id = ? AND deleted = 0`,
		s.Name, s.Price.Cents, string(s.Cycle), string(s.Category),
		s.NextBilling.String(), s.Active, s.Description, s.Logo, s.UpdatedAt,
		s.ID, s.UserID)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return requireRow(res)
}

// DeleteSubscription soft-deletes so the sync worker can still propagate
// the removal to the remote sheet.
func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions
		 SET deleted = 1, sync_status = 'pending', version = version + 1, updated_at = ?
		 WHERE id = ? AND user_id = ? AND deleted = 0`,
		time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) SetSubscriptionActive(ctx context.Context, userID, id string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions
		 SET active = ?, sync_status = 'pending', version = version + 1, updated_at = ?
		 WHERE id = ? AND user_id = ? AND deleted = 0`,
		active, time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("set subscription active: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertSubscription inserts or replaces a mirrored subscription row.
// Used by the sqlite mirror backend, not by the API write path.
func (r *SQLiteRepository) UpsertSubscription(ctx context.Context, s core.Subscription) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, user_id, name, price_cents, billing_cycle, category,
		 next_billing_date, active, description, logo, sync_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'synced', ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     name = excluded.name,
		     price_cents = excluded.price_cents,
		     billing_cycle = excluded.billing_cycle,
		     category = excluded.category,
		     next_billing_date = excluded.next_billing_date,
		     active = excluded.active,
		     description = excluded.description,
		     logo = excluded.logo,
		     updated_at = excluded.updated_at`,
		s.ID, s.UserID, s.Name, s.Price.Cents, string(s.Cycle), string(s.Category),
		s.NextBilling.String(), s.Active, s.Description, s.Logo, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// DeleteSubscriptionByID hard-deletes a mirrored row.
func (r *SQLiteRepository) DeleteSubscriptionByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete subscription by id: %w", err)
	}
	return nil
}

// PendingSyncSubscription is the minimal payload for sync queue messages.
type PendingSyncSubscription struct {
	ID        string
	UserID    string
	Version   int64
	Deleted   bool
	UpdatedAt time.Time
}

// GetPendingSync returns subscriptions waiting to be pushed to the
// remote backend, oldest first.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSyncSubscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, version, deleted, updated_at
		 FROM subscriptions WHERE sync_status = 'pending'
		 ORDER BY updated_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync subscriptions: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncSubscription
	for rows.Next() {
		var p PendingSyncSubscription
		if err := rows.Scan(&p.ID, &p.UserID, &p.Version, &p.Deleted, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync subscription: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending sync subscriptions: %w", err)
	}
	return pending, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET sync_status = 'synced' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark subscription synced: %w", err)
	}
	slog.InfoContext(ctx, "Subscription marked as synced", "subscription_id", id)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark subscription sync error: %w", err)
	}
	slog.WarnContext(ctx, "Subscription marked with sync error", "subscription_id", id)
	return nil
}

// UserSettings holds per-user display preferences.
type UserSettings struct {
	Currency          string
	Locale            string
	RenewalWindowDays int
}

// GetUserSettings returns stored settings, falling back to the given
// defaults when the user never saved any.
func (r *SQLiteRepository) GetUserSettings(ctx context.Context, userID string, defaults UserSettings) (UserSettings, error) {
	s := defaults
	err := r.db.QueryRowContext(ctx,
		`SELECT currency, locale, renewal_window_days
		 FROM user_settings WHERE user_id = ?`, userID).
		Scan(&s.Currency, &s.Locale, &s.RenewalWindowDays)
	if errors.Is(err, sql.ErrNoRows) {
		return defaults, nil
	}
	if err != nil {
		return UserSettings{}, fmt.Errorf("select user settings: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) SaveUserSettings(ctx context.Context, userID string, s UserSettings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id, currency, locale, renewal_window_days, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		     currency = excluded.currency,
		     locale = excluded.locale,
		     renewal_window_days = excluded.renewal_window_days,
		     updated_at = excluded.updated_at`,
		userID, s.Currency, s.Locale, s.RenewalWindowDays, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save user settings: %w", err)
	}
	return nil
}
