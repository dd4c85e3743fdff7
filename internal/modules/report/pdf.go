// README: PDF rendering for the daily dispatch report.
package report

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"
)

func buildDailyPDF(r *DailyReport) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Daily Dispatch Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "DAILY DISPATCH REPORT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Date     : "+r.Day.Format("2006-01-02"))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Bookings : %d", r.Total))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Revenue  : %.2f EUR (completed)", float64(r.RevenueCents)/100))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "By status")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	for _, status := range []string{"draft", "pending_admin", "approved", "assigned", "confirmed", "in_progress", "completed", "cancelled"} {
		if n := r.ByStatus[status]; n > 0 {
			pdf.Cell(0, 6, fmt.Sprintf("%-14s %d", status, n))
			pdf.Ln(6)
		}
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Bookings")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range r.Rows {
		driver := "-"
		if row.DriverID != nil {
			driver = string(*row.DriverID)
		}
		line := fmt.Sprintf("%s  %s  %s -> %s  %dpax  %s  driver:%s",
			row.Code, row.PickupTime.Format("15:04"), row.Pickup, row.Dropoff,
			row.Pax, row.Status, driver)
		pdf.MultiCell(0, 6, line, "", "", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("DISPATCH_%s.pdf", r.Day.Format("20060102"))
	return buf.Bytes(), filename, nil
}
