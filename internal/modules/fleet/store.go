// README: Fleet store backed by PostgreSQL.
package fleet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vilamourachauffeurs/dispatch/internal/auth"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/booking"
	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// rowExecutor is satisfied by both pgxpool.Pool and pgx.Tx, so the insert
// helpers serve single writes and transactional provisioning alike.
type rowExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertUser(ctx context.Context, db rowExecutor, u *User) error {
	var related *string
	if u.RelatedID != nil {
		v := string(*u.RelatedID)
		related = &v
	}
	_, err := db.Exec(ctx, `
		INSERT INTO users (id, email, name, role, related_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(u.ID), u.Email, u.Name, string(u.Role), related, u.CreatedAt,
	)
	return err
}

func insertDriver(ctx context.Context, db rowExecutor, d *Driver) error {
	_, err := db.Exec(ctx, `
		INSERT INTO drivers (id, name, phone, vehicle_type, plate, commission_rate, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(d.ID), d.Name, d.Phone, string(d.VehicleType), d.Plate, d.CommissionRate, d.Active, d.CreatedAt,
	)
	return err
}

func insertPartner(ctx context.Context, db rowExecutor, p *Partner) error {
	_, err := db.Exec(ctx, `
		INSERT INTO partners (id, name, email, phone, commission_rate, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(p.ID), p.Name, p.Email, p.Phone, p.CommissionRate, p.Active, p.CreatedAt,
	)
	return err
}

func insertOperator(ctx context.Context, db rowExecutor, o *Operator) error {
	_, err := db.Exec(ctx, `
		INSERT INTO operators (id, name, email, phone, commission_rate, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(o.ID), o.Name, o.Email, o.Phone, o.CommissionRate, o.Active, o.CreatedAt,
	)
	return err
}

func (s *Store) CreateUser(ctx context.Context, u *User) error {
	return insertUser(ctx, s.db, u)
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CreateDriverWithUser inserts the driver and its user account atomically, so
// a failed account insert cannot leave an orphan driver row.
func (s *Store) CreateDriverWithUser(ctx context.Context, d *Driver, u *User) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := insertDriver(ctx, tx, d); err != nil {
			return err
		}
		return insertUser(ctx, tx, u)
	})
}

// CreatePartnerWithUser inserts the partner company and its linked user atomically.
func (s *Store) CreatePartnerWithUser(ctx context.Context, p *Partner, u *User) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := insertPartner(ctx, tx, p); err != nil {
			return err
		}
		return insertUser(ctx, tx, u)
	})
}

// CreateOperatorWithUser inserts the operator company and its linked user atomically.
func (s *Store) CreateOperatorWithUser(ctx context.Context, o *Operator, u *User) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := insertOperator(ctx, tx, o); err != nil {
			return err
		}
		return insertUser(ctx, tx, u)
	})
}

func (s *Store) GetUser(ctx context.Context, id types.ID) (*User, error) {
	var u User
	var related sql.NullString
	err := s.db.QueryRow(ctx, `
		SELECT id, email, name, role, related_id, created_at
		FROM users WHERE id = $1`, string(id),
	).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &related, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if related.Valid {
		rid := types.ID(related.String)
		u.RelatedID = &rid
	}
	return &u, nil
}

func (s *Store) CreateDriver(ctx context.Context, d *Driver) error {
	return insertDriver(ctx, s.db, d)
}

func (s *Store) GetDriver(ctx context.Context, id types.ID) (*Driver, error) {
	var d Driver
	err := s.db.QueryRow(ctx, `
		SELECT id, name, phone, vehicle_type, plate, commission_rate, active, created_at
		FROM drivers WHERE id = $1`, string(id),
	).Scan(&d.ID, &d.Name, &d.Phone, &d.VehicleType, &d.Plate, &d.CommissionRate, &d.Active, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) UpdateDriver(ctx context.Context, d *Driver) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers SET
			name = $2, phone = $3, vehicle_type = $4, plate = $5,
			commission_rate = $6, active = $7
		WHERE id = $1`,
		string(d.ID), d.Name, d.Phone, string(d.VehicleType), d.Plate,
		d.CommissionRate, d.Active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdatePartner(ctx context.Context, p *Partner) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE partners SET
			name = $2, email = $3, phone = $4, commission_rate = $5, active = $6
		WHERE id = $1`,
		string(p.ID), p.Name, p.Email, p.Phone, p.CommissionRate, p.Active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateOperator(ctx context.Context, o *Operator) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE operators SET
			name = $2, email = $3, phone = $4, commission_rate = $5, active = $6
		WHERE id = $1`,
		string(o.ID), o.Name, o.Email, o.Phone, o.CommissionRate, o.Active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListActiveDrivers(ctx context.Context) ([]*Driver, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, phone, vehicle_type, plate, commission_rate, active, created_at
		FROM drivers WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Driver
	for rows.Next() {
		var d Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.VehicleType, &d.Plate, &d.CommissionRate, &d.Active, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (s *Store) CreatePartner(ctx context.Context, p *Partner) error {
	return insertPartner(ctx, s.db, p)
}

func (s *Store) GetPartner(ctx context.Context, id types.ID) (*Partner, error) {
	var p Partner
	err := s.db.QueryRow(ctx, `
		SELECT id, name, email, phone, commission_rate, active, created_at
		FROM partners WHERE id = $1`, string(id),
	).Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.CommissionRate, &p.Active, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPartners(ctx context.Context) ([]*Partner, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, email, phone, commission_rate, active, created_at
		FROM partners ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Partner
	for rows.Next() {
		var p Partner
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.CommissionRate, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *Store) CreateOperator(ctx context.Context, o *Operator) error {
	return insertOperator(ctx, s.db, o)
}

func (s *Store) GetOperator(ctx context.Context, id types.ID) (*Operator, error) {
	var o Operator
	err := s.db.QueryRow(ctx, `
		SELECT id, name, email, phone, commission_rate, active, created_at
		FROM operators WHERE id = $1`, string(id),
	).Scan(&o.ID, &o.Name, &o.Email, &o.Phone, &o.CommissionRate, &o.Active, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) ListOperators(ctx context.Context) ([]*Operator, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, email, phone, commission_rate, active, created_at
		FROM operators ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Operator
	for rows.Next() {
		var o Operator
		if err := rows.Scan(&o.ID, &o.Name, &o.Email, &o.Phone, &o.CommissionRate, &o.Active, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

// Exists answers assignee lookups for the booking service.
func (s *Store) Exists(ctx context.Context, kind booking.AssigneeType, id types.ID) (bool, error) {
	var table string
	switch kind {
	case booking.AssigneeDriver:
		table = "drivers"
	case booking.AssigneePartner:
		table = "partners"
	case booking.AssigneeOperator:
		table = "operators"
	default:
		return false, nil
	}
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1 AND active)`,
		string(id),
	).Scan(&exists)
	return exists, err
}

// ResolveContext maps a verified Firebase UID onto the caller context used for
// authorization and visibility.
func (s *Store) ResolveContext(ctx context.Context, uid string) (auth.Context, error) {
	u, err := s.GetUser(ctx, types.ID(uid))
	if err != nil {
		return auth.Context{}, err
	}
	ac := auth.Context{UserID: u.ID, Role: u.Role}
	if u.RelatedID != nil {
		ac.RelatedID = *u.RelatedID
	}
	return ac, nil
}
