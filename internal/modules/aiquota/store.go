package aiquota

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles ai_quota persistence.
type Store struct {
	db           *pgxpool.Pool
	defaultCalls int
}

// NewStore returns a Store with the given monthly allowance.
func NewStore(db *pgxpool.Pool, defaultCalls int) *Store {
	if defaultCalls <= 0 {
		defaultCalls = DefaultCalls
	}
	return &Store{db: db, defaultCalls: defaultCalls}
}

// UseCall atomically checks the monthly quota and deducts one call.
// It resets the counter when the stored period is behind the current month.
// Returns ErrQuotaExhausted when 0 rows are updated (quota spent or user absent).
func (s *Store) UseCall(ctx context.Context, uid string) error {
	now := time.Now().Format("2006-01")

	tag, err := s.db.Exec(ctx, `
		UPDATE ai_quota SET
			calls_remaining = CASE WHEN period != $1 THEN $2 - 1 ELSE calls_remaining - 1 END,
			period = $1
		WHERE user_id = $3 AND (period < $1 OR calls_remaining > 0)
	`, now, s.defaultCalls, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuotaExhausted
	}
	return nil
}

// EnsureUser inserts a quota row for uid with the full allowance.
// An existing row is left untouched (ON CONFLICT DO NOTHING).
func (s *Store) EnsureUser(ctx context.Context, uid string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ai_quota (user_id, calls_remaining, period)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, uid, s.defaultCalls, time.Now().Format("2006-01"))
	return err
}
