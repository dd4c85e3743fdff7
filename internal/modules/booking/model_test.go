// README: Pure tests for the transition table, role gating, and visibility policy.
package booking

import (
	"testing"

	"github.com/vilamourachauffeurs/dispatch/internal/auth"
	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

// TestCanTransition verifies the status transition table without a database.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusDraft, StatusPendingAdmin, true},
		{StatusPendingAdmin, StatusApproved, true},
		{StatusApproved, StatusAssigned, true},
		{StatusAssigned, StatusConfirmed, true},
		{StatusConfirmed, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		// cancel from every non-terminal state
		{StatusDraft, StatusCancelled, true},
		{StatusPendingAdmin, StatusCancelled, true},
		{StatusApproved, StatusCancelled, true},
		{StatusAssigned, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusInProgress, StatusCancelled, true},
		// invalid: terminal states have no outgoing transitions
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCancelled, StatusDraft, false},
		{StatusCancelled, StatusPendingAdmin, false},
		// invalid: skipping states
		{StatusDraft, StatusApproved, false},
		{StatusPendingAdmin, StatusAssigned, false},
		{StatusApproved, StatusConfirmed, false},
		{StatusAssigned, StatusInProgress, false},
		{StatusConfirmed, StatusCompleted, false},
		// invalid: moving backwards
		{StatusApproved, StatusPendingAdmin, false},
		{StatusAssigned, StatusApproved, false},
		{StatusCompleted, StatusDraft, false},
	}
	for _, tc := range cases {
		got := CanTransition(tc.from, tc.to)
		if got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusPendingAdmin, StatusApproved, StatusAssigned, StatusConfirmed, StatusInProgress} {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = true, want false", s)
		}
	}
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		if !IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = false, want true", s)
		}
	}
}

func TestVehicleClassFor(t *testing.T) {
	cases := []struct {
		pax  int
		want VehicleType
	}{
		{1, VehicleSedan},
		{4, VehicleSedan},
		{5, VehicleMinivan},
		{8, VehicleMinivan},
	}
	for _, tc := range cases {
		if got := VehicleClassFor(tc.pax); got != tc.want {
			t.Errorf("VehicleClassFor(%d) = %s, want %s", tc.pax, got, tc.want)
		}
	}
}

func TestTransitionAllowedFor(t *testing.T) {
	driverID := types.ID("d1")
	admin := auth.Context{UserID: "u_admin", Role: auth.RoleAdmin}
	creator := auth.Context{UserID: "u_creator", Role: auth.RoleOperator}
	assignedDriver := auth.Context{UserID: driverID, Role: auth.RoleDriver}
	otherDriver := auth.Context{UserID: "d2", Role: auth.RoleDriver}

	draft := &Booking{Status: StatusDraft, CreatedBy: "u_creator"}
	if !TransitionAllowedFor(draft, admin) {
		t.Error("admin must be allowed out of draft")
	}
	if !TransitionAllowedFor(draft, creator) {
		t.Error("creator must be allowed out of draft")
	}
	if TransitionAllowedFor(draft, otherDriver) {
		t.Error("unrelated driver must not move a draft")
	}

	pending := &Booking{Status: StatusPendingAdmin, CreatedBy: "u_creator"}
	if !TransitionAllowedFor(pending, admin) {
		t.Error("admin must be allowed out of pending_admin")
	}
	if TransitionAllowedFor(pending, creator) {
		t.Error("creator must not approve their own booking")
	}

	assigned := &Booking{Status: StatusAssigned, DriverID: &driverID}
	if !TransitionAllowedFor(assigned, assignedDriver) {
		t.Error("assigned driver must be allowed out of assigned")
	}
	if TransitionAllowedFor(assigned, otherDriver) {
		t.Error("non-assigned driver must not move the booking")
	}
	if !TransitionAllowedFor(assigned, admin) {
		t.Error("admin must be allowed out of assigned")
	}

	done := &Booking{Status: StatusCompleted, DriverID: &driverID}
	if TransitionAllowedFor(done, admin) {
		t.Error("no actor may move a completed booking")
	}
}

func TestAssignee(t *testing.T) {
	driverID := types.ID("d1")
	partnerID := types.ID("pa1")

	b := &Booking{}
	if _, _, ok := b.Assignee(); ok {
		t.Error("empty booking must have no assignee")
	}

	b = &Booking{DriverID: &driverID}
	kind, id, ok := b.Assignee()
	if !ok || kind != AssigneeDriver || id != driverID {
		t.Errorf("Assignee() = (%s, %s, %v), want (driver, d1, true)", kind, id, ok)
	}

	b = &Booking{PartnerID: &partnerID}
	kind, id, ok = b.Assignee()
	if !ok || kind != AssigneePartner || id != partnerID {
		t.Errorf("Assignee() = (%s, %s, %v), want (partner, pa1, true)", kind, id, ok)
	}
}
