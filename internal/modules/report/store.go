// README: Report store: daily aggregation queries over bookings.
package report

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

// Daily loads all bookings whose pickup falls on the given UTC day, ordered by
// pickup time, and folds them into the report aggregates.
func (s *Store) Daily(ctx context.Context, day time.Time) (*DailyReport, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	rows, err := s.db.Query(ctx, `
		SELECT code, client_name, pickup_location, dropoff_location,
		       pickup_time, pax, status, driver_id, cost_cents
		FROM bookings
		WHERE pickup_time >= $1 AND pickup_time < $2
		ORDER BY pickup_time`, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	r := &DailyReport{Day: start, ByStatus: map[string]int{}}
	for rows.Next() {
		var row Row
		var driverID sql.NullString
		if err := rows.Scan(&row.Code, &row.ClientName, &row.Pickup, &row.Dropoff,
			&row.PickupTime, &row.Pax, &row.Status, &driverID, &row.CostCents); err != nil {
			return nil, err
		}
		if driverID.Valid {
			id := types.ID(driverID.String)
			row.DriverID = &id
		}
		r.Rows = append(r.Rows, row)
		r.Total++
		r.ByStatus[row.Status]++
		if row.Status == "completed" {
			r.RevenueCents += row.CostCents
		}
	}
	return r, rows.Err()
}
