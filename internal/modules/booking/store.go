// README: Booking store backed by PostgreSQL; transactional code allocation and guarded updates.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const bookingColumns = `
	id, code, client_name, created_by, requested_by,
	partner_id, operator_id, driver_id,
	pickup_location, dropoff_location, pickup_time, pax, vehicle_type,
	status, status_version, cost_cents, payment_type, urgency, notes, created_at`

// Create inserts the booking and allocates its sequential code inside one
// transaction. The per-day counter row is locked by the upsert, so concurrent
// creators on the same day serialise on it and codes never collide or leak.
func (s *Store) Create(ctx context.Context, b *Booking) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	day := b.CreatedAt.UTC().Format("060102")
	var seq int
	err = tx.QueryRow(ctx, `
		INSERT INTO booking_counters (day, value)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET value = booking_counters.value + 1
		RETURNING value`, day,
	).Scan(&seq)
	if err != nil {
		return err
	}
	b.Code = fmt.Sprintf("%s%03d", day, seq)

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (
			id, code, client_name, created_by, requested_by,
			partner_id, operator_id, driver_id,
			pickup_location, dropoff_location, pickup_time, pax, vehicle_type,
			status, status_version, cost_cents, payment_type, urgency, notes, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20
		)`,
		string(b.ID), b.Code, b.ClientName, string(b.CreatedBy), b.RequestedBy,
		toStringPtr(b.PartnerID), toStringPtr(b.OperatorID), toStringPtr(b.DriverID),
		b.Pickup, b.Dropoff, b.PickupTime, b.Pax, string(b.VehicleType),
		string(b.Status), b.StatusVersion, b.Cost.Amount, string(b.PaymentType),
		string(b.Urgency), b.Notes, b.CreatedAt,
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	return scanBooking(row)
}

// List returns the bookings visible under f, newest pickup first.
func (s *Store) List(ctx context.Context, f Filter) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings`
	args := []any{}
	if f.Field != "" {
		query += fmt.Sprintf(" WHERE %s = $1", f.Field)
		args = append(args, string(f.Value))
	}
	query += " ORDER BY pickup_time DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateDetails rewrites the editable detail columns. Status, code, and
// assignee columns stay untouched so a concurrent transition is never undone.
func (s *Store) UpdateDetails(ctx context.Context, b *Booking) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings SET
			client_name      = $2,
			requested_by     = $3,
			pickup_location  = $4,
			dropoff_location = $5,
			pickup_time      = $6,
			pax              = $7,
			vehicle_type     = $8,
			cost_cents       = $9,
			payment_type     = $10,
			urgency          = $11,
			notes            = $12
		WHERE id = $1`,
		string(b.ID), b.ClientName, b.RequestedBy, b.Pickup, b.Dropoff,
		b.PickupTime, b.Pax, string(b.VehicleType), b.Cost.Amount,
		string(b.PaymentType), string(b.Urgency), b.Notes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus performs the optimistic guarded transition write. It reports
// false when the guard failed (the booking moved underneath the caller).
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1, status_version = status_version + 1
		WHERE id = $2 AND status = $3 AND status_version = $4`,
		string(to), string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// AssignExclusive binds one assignee and clears the other two in a single
// atomic write, forcing status to assigned. The write is refused on terminal
// bookings. A concurrent observer can never see two assignees.
func (s *Store) AssignExclusive(ctx context.Context, id types.ID, kind AssigneeType, entityID types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings SET
			driver_id      = CASE WHEN $2 = 'driver'   THEN $3 ELSE NULL END,
			partner_id     = CASE WHEN $2 = 'partner'  THEN $3 ELSE NULL END,
			operator_id    = CASE WHEN $2 = 'operator' THEN $3 ELSE NULL END,
			status         = 'assigned',
			status_version = status_version + 1
		WHERE id = $1 AND status NOT IN ('completed', 'cancelled')`,
		string(id), string(kind), string(entityID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_status_events (
			booking_id, from_status, to_status, actor_id, actor_role, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.BookingID), string(e.FromStatus), string(e.ToStatus),
		string(e.ActorID), string(e.ActorRole), e.CreatedAt,
	)
	return err
}

func (s *Store) ListEvents(ctx context.Context, bookingID types.ID) ([]*Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, booking_id, from_status, to_status, actor_id, actor_role, created_at
		FROM booking_status_events
		WHERE booking_id = $1
		ORDER BY id`, string(bookingID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.BookingID, &e.FromStatus, &e.ToStatus,
			&e.ActorID, &e.ActorRole, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var partnerID, operatorID, driverID sql.NullString

	err := row.Scan(
		&b.ID, &b.Code, &b.ClientName, &b.CreatedBy, &b.RequestedBy,
		&partnerID, &operatorID, &driverID,
		&b.Pickup, &b.Dropoff, &b.PickupTime, &b.Pax, &b.VehicleType,
		&b.Status, &b.StatusVersion, &b.Cost.Amount, &b.PaymentType,
		&b.Urgency, &b.Notes, &b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	b.PartnerID = toIDPtr(partnerID)
	b.OperatorID = toIDPtr(operatorID)
	b.DriverID = toIDPtr(driverID)
	if b.Cost.Currency == "" {
		b.Cost.Currency = "EUR"
	}
	return &b, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toIDPtr(v sql.NullString) *types.ID {
	if !v.Valid {
		return nil
	}
	id := types.ID(v.String)
	return &id
}
