package ai

import (
	"context"
	"errors"
	"time"
)

// ErrSuggestionUnavailable is returned when the model cannot produce a usable
// suggestion (no drivers, no candidates, or unparseable output). Callers treat
// it as a soft failure: the dispatcher falls back to manual assignment.
var ErrSuggestionUnavailable = errors.New("ai suggestion unavailable")

// SuggestRequest describes the booking the model should find a driver for.
type SuggestRequest struct {
	Pickup     string
	Dropoff    string
	PickupTime time.Time
	Pax        int
	Notes      string

	// TravelEstimate is optional prompt enrichment, e.g. "32 min / 41 km".
	TravelEstimate string
}

// Suggestion is the structured output of the driver suggestion flow.
type Suggestion struct {
	// DriverID is one of the IDs returned by the availability tool.
	DriverID string `json:"driver_id"`

	// Reason is a short human-readable justification shown to the dispatcher.
	Reason string `json:"reason"`
}

// AvailableDriver is the view of a driver handed to the model through the
// availability tool.
type AvailableDriver struct {
	ID          string
	Name        string
	VehicleType string
	Online      bool
}

// DriverLister supplies the candidate pool for the suggestion tool call.
type DriverLister interface {
	AvailableDrivers(ctx context.Context) ([]AvailableDriver, error)
}
