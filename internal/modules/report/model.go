// README: Daily report aggregates.
package report

import (
	"time"

	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

// DailyReport aggregates the bookings whose pickup falls on one calendar day.
type DailyReport struct {
	Day          time.Time
	Total        int
	ByStatus     map[string]int
	RevenueCents int64 // completed bookings only
	Rows         []Row
}

// Row is one booking line in the report.
type Row struct {
	Code       string
	ClientName string
	Pickup     string
	Dropoff    string
	PickupTime time.Time
	Pax        int
	Status     string
	DriverID   *types.ID
	CostCents  int64
}
