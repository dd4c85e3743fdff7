// README: PDF rendering tests (no database).
package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

func TestBuildDailyPDF(t *testing.T) {
	driverID := types.ID("d1")
	r := &DailyReport{
		Day:          time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Total:        2,
		ByStatus:     map[string]int{"completed": 1, "cancelled": 1},
		RevenueCents: 6500,
		Rows: []Row{
			{Code: "260901001", ClientName: "Smith", Pickup: "Faro Airport", Dropoff: "Vilamoura Marina",
				PickupTime: time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC), Pax: 2, Status: "completed",
				DriverID: &driverID, CostCents: 6500},
			{Code: "260901002", ClientName: "Jones", Pickup: "Quarteira", Dropoff: "Albufeira",
				PickupTime: time.Date(2026, 9, 1, 16, 0, 0, 0, time.UTC), Pax: 5, Status: "cancelled"},
		},
	}

	data, filename, err := buildDailyPDF(r)
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("expected PDF header")
	}
	if filename != "DISPATCH_20260901.pdf" {
		t.Fatalf("unexpected filename %q", filename)
	}
}

func TestBuildDailyPDFEmptyDay(t *testing.T) {
	r := &DailyReport{Day: time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), ByStatus: map[string]int{}}
	data, _, err := buildDailyPDF(r)
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty PDF for an empty day")
	}
}
