// README: Notification store: records and device tokens, backed by PostgreSQL.
package notification

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, n *Notification) error {
	var bookingID *string
	if n.BookingID != nil {
		v := string(*n.BookingID)
		bookingID = &v
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO notifications (id, user_id, kind, title, body, booking_id, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(n.ID), string(n.UserID), string(n.Kind), n.Title, n.Body, bookingID, n.Read, n.CreatedAt,
	)
	return err
}

func (s *Store) ListForUser(ctx context.Context, userID types.ID, limit int) ([]*Notification, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, kind, title, body, booking_id, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, string(userID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var n Notification
		var bookingID sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &bookingID, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		if bookingID.Valid {
			id := types.ID(bookingID.String)
			n.BookingID = &id
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// MarkRead flips the read flag for one notification owned by userID.
func (s *Store) MarkRead(ctx context.Context, userID, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND user_id = $2`, string(id), string(userID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) RegisterToken(ctx context.Context, userID types.ID, token string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO device_tokens (user_id, token, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, token) DO NOTHING`,
		string(userID), token, time.Now().UTC(),
	)
	return err
}

func (s *Store) TokensForUsers(ctx context.Context, userIDs []types.ID) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = string(id)
	}
	rows, err := s.db.Query(ctx,
		`SELECT token FROM device_tokens WHERE user_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		out = append(out, token)
	}
	return out, rows.Err()
}

// DeleteTokens prunes tokens FCM reported as no longer registered.
func (s *Store) DeleteTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`DELETE FROM device_tokens WHERE token = ANY($1)`, tokens)
	return err
}

// AdminUserIDs lists every admin account, the audience for booking requests.
func (s *Store) AdminUserIDs(ctx context.Context) ([]types.ID, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM users WHERE role = 'admin'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, types.ID(id))
	}
	return out, rows.Err()
}
