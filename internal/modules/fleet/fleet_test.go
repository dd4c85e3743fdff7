// README: Fleet provisioning and caller-resolution tests. DB-backed.
package fleet

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vilamourachauffeurs/dispatch/internal/auth"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/booking"
)

func TestProvisionDriverAndResolve(t *testing.T) {
	svc := NewService(setupTestStore(t), nil)
	ctx := context.Background()

	d, err := svc.ProvisionDriver(ctx, ProvisionDriverCommand{
		UserID: "uid_d1",
		Email:  "Driver@Example.com",
		Name:   "Joao",
		Phone:  "+351911111111",
		Plate:  "AA-01-BB",
	})
	if err != nil {
		t.Fatalf("provision driver: %v", err)
	}
	if d.ID != "uid_d1" {
		t.Fatalf("driver id must equal user id, got %s", d.ID)
	}
	if d.VehicleType != booking.VehicleSedan {
		t.Fatalf("expected default Sedan, got %s", d.VehicleType)
	}

	ac, err := svc.ResolveContext(ctx, "uid_d1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ac.Role != auth.RoleDriver || ac.UserID != "uid_d1" {
		t.Fatalf("unexpected context: %+v", ac)
	}

	ok, err := svc.Exists(ctx, booking.AssigneeDriver, d.ID)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !ok {
		t.Fatal("expected provisioned driver to exist")
	}
}

func TestProvisionPartnerLinksUser(t *testing.T) {
	svc := NewService(setupTestStore(t), nil)
	ctx := context.Background()

	p, err := svc.ProvisionPartner(ctx, ProvisionPartnerCommand{
		UserID: "uid_p1",
		Email:  "desk@hotel.example",
		Name:   "Hotel Algarve",
	})
	if err != nil {
		t.Fatalf("provision partner: %v", err)
	}

	ac, err := svc.ResolveContext(ctx, "uid_p1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ac.Role != auth.RolePartner {
		t.Fatalf("expected partner role, got %s", ac.Role)
	}
	if ac.RelatedID != p.ID {
		t.Fatalf("expected related id %s, got %s", p.ID, ac.RelatedID)
	}
}

func TestResolveUnknownUser(t *testing.T) {
	svc := NewService(setupTestStore(t), nil)
	if _, err := svc.ResolveContext(context.Background(), "ghost"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExistsUnknownKindAndEntity(t *testing.T) {
	svc := NewService(setupTestStore(t), nil)
	ctx := context.Background()

	ok, err := svc.Exists(ctx, "courier", "x")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatal("unknown assignee kind must not exist")
	}

	ok, err = svc.Exists(ctx, booking.AssigneePartner, "missing")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatal("missing partner must not exist")
	}
}

func TestProvisionUser(t *testing.T) {
	svc := NewService(setupTestStore(t), nil)
	ctx := context.Background()

	p, err := svc.ProvisionPartner(ctx, ProvisionPartnerCommand{
		UserID: "uid_p1",
		Email:  "desk@hotel.example",
		Name:   "Hotel Algarve",
	})
	if err != nil {
		t.Fatalf("provision partner: %v", err)
	}

	// Second dashboard account for the same partner company.
	u, err := svc.ProvisionUser(ctx, ProvisionUserCommand{
		UserID:    "uid_p2",
		Email:     "night-desk@hotel.example",
		Name:      "Night Desk",
		Role:      "partner",
		RelatedID: p.ID,
	})
	if err != nil {
		t.Fatalf("provision user: %v", err)
	}
	if u.RelatedID == nil || *u.RelatedID != p.ID {
		t.Fatalf("expected related id %s, got %v", p.ID, u.RelatedID)
	}

	ac, err := svc.ResolveContext(ctx, "uid_p2")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ac.Role != auth.RolePartner || ac.RelatedID != p.ID {
		t.Fatalf("unexpected context: %+v", ac)
	}

	if _, err := svc.ProvisionUser(ctx, ProvisionUserCommand{
		UserID: "uid_x", Email: "x@y", Name: "X", Role: "superuser",
	}); err != ErrBadRequest {
		t.Fatalf("unknown role: expected ErrBadRequest, got %v", err)
	}
	if _, err := svc.ProvisionUser(ctx, ProvisionUserCommand{
		UserID: "uid_x", Email: "x@y", Name: "X", Role: "operator", RelatedID: "missing",
	}); err != ErrNotFound {
		t.Fatalf("missing company: expected ErrNotFound, got %v", err)
	}

	if _, err := svc.ProvisionUser(ctx, ProvisionUserCommand{
		UserID: "uid_a1", Email: "boss@example.com", Name: "Boss", Role: "admin",
	}); err != nil {
		t.Fatalf("provision admin: %v", err)
	}

	partners, err := svc.ListPartners(ctx)
	if err != nil {
		t.Fatalf("list partners: %v", err)
	}
	if len(partners) != 1 {
		t.Fatalf("expected 1 partner, got %d", len(partners))
	}
}

func TestProvisionValidation(t *testing.T) {
	svc := NewService(setupTestStore(t), nil)
	ctx := context.Background()

	if _, err := svc.ProvisionDriver(ctx, ProvisionDriverCommand{Name: "x", Email: "a@b"}); err != ErrBadRequest {
		t.Fatalf("missing user id: expected ErrBadRequest, got %v", err)
	}
	if _, err := svc.ProvisionPartner(ctx, ProvisionPartnerCommand{UserID: "u", Name: "x"}); err != ErrBadRequest {
		t.Fatalf("missing email: expected ErrBadRequest, got %v", err)
	}
	if _, err := svc.ProvisionOperator(ctx, ProvisionOperatorCommand{UserID: "u", Email: "a@b"}); err != ErrBadRequest {
		t.Fatalf("missing name: expected ErrBadRequest, got %v", err)
	}
	if _, err := svc.ProvisionPartner(ctx, ProvisionPartnerCommand{UserID: "u", Email: "a@b", Name: "x", CommissionRate: 1.5}); err != ErrBadRequest {
		t.Fatalf("commission above 1: expected ErrBadRequest, got %v", err)
	}
}

// TestProvisionRollsBackOnUserConflict covers the atomicity of provisioning:
// when the account insert fails, the entity insert must not survive.
func TestProvisionRollsBackOnUserConflict(t *testing.T) {
	svc := NewService(setupTestStore(t), nil)
	ctx := context.Background()

	if _, err := svc.ProvisionUser(ctx, ProvisionUserCommand{
		UserID: "uid_dup", Email: "boss@example.com", Name: "Boss", Role: "admin",
	}); err != nil {
		t.Fatalf("provision admin: %v", err)
	}

	// Same UID again; the user insert hits the primary key and the whole
	// transaction must roll back, leaving no orphan driver row.
	_, err := svc.ProvisionDriver(ctx, ProvisionDriverCommand{
		UserID: "uid_dup",
		Email:  "dup@example.com",
		Name:   "Dup",
	})
	if err == nil {
		t.Fatal("expected conflict on duplicate user id")
	}
	if _, err := svc.GetDriver(ctx, "uid_dup"); err != ErrNotFound {
		t.Fatalf("driver row must be rolled back, got %v", err)
	}
}

func TestUpdateDriver(t *testing.T) {
	svc := NewService(setupTestStore(t), nil)
	ctx := context.Background()

	if _, err := svc.ProvisionDriver(ctx, ProvisionDriverCommand{
		UserID: "uid_d1",
		Email:  "driver@example.com",
		Name:   "Joao",
		Plate:  "AA-01-BB",
	}); err != nil {
		t.Fatalf("provision driver: %v", err)
	}

	vt := booking.VehicleMinivan
	rate := 0.25
	inactive := false
	d, err := svc.UpdateDriver(ctx, UpdateDriverCommand{
		DriverID:       "uid_d1",
		VehicleType:    &vt,
		CommissionRate: &rate,
		Active:         &inactive,
	})
	if err != nil {
		t.Fatalf("update driver: %v", err)
	}
	if d.VehicleType != booking.VehicleMinivan || d.CommissionRate != 0.25 || d.Active {
		t.Fatalf("patch not applied: %+v", d)
	}
	// Untouched fields survive the patch.
	if d.Name != "Joao" || d.Plate != "AA-01-BB" {
		t.Fatalf("unpatched fields changed: %+v", d)
	}

	got, err := svc.GetDriver(ctx, "uid_d1")
	if err != nil {
		t.Fatalf("get driver: %v", err)
	}
	if got.VehicleType != booking.VehicleMinivan || got.Active {
		t.Fatalf("update not persisted: %+v", got)
	}

	bad := booking.VehicleType("truck")
	if _, err := svc.UpdateDriver(ctx, UpdateDriverCommand{DriverID: "uid_d1", VehicleType: &bad}); err != ErrBadRequest {
		t.Fatalf("bad vehicle type: expected ErrBadRequest, got %v", err)
	}
	if _, err := svc.UpdateDriver(ctx, UpdateDriverCommand{DriverID: "ghost"}); err != ErrNotFound {
		t.Fatalf("unknown driver: expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePartner(t *testing.T) {
	svc := NewService(setupTestStore(t), nil)
	ctx := context.Background()

	p, err := svc.ProvisionPartner(ctx, ProvisionPartnerCommand{
		UserID: "uid_p1",
		Email:  "desk@hotel.example",
		Name:   "Hotel Algarve",
	})
	if err != nil {
		t.Fatalf("provision partner: %v", err)
	}

	name := "Hotel Algarve Resort"
	rate := 0.1
	got, err := svc.UpdatePartner(ctx, UpdateCompanyCommand{ID: p.ID, Name: &name, CommissionRate: &rate})
	if err != nil {
		t.Fatalf("update partner: %v", err)
	}
	if got.Name != name || got.CommissionRate != 0.1 {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.Email != "desk@hotel.example" {
		t.Fatalf("unpatched email changed: %+v", got)
	}

	empty := ""
	if _, err := svc.UpdatePartner(ctx, UpdateCompanyCommand{ID: p.ID, Name: &empty}); err != ErrBadRequest {
		t.Fatalf("empty name: expected ErrBadRequest, got %v", err)
	}
	over := 1.5
	if _, err := svc.UpdatePartner(ctx, UpdateCompanyCommand{ID: p.ID, CommissionRate: &over}); err != ErrBadRequest {
		t.Fatalf("commission above 1: expected ErrBadRequest, got %v", err)
	}
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("DISPATCH_TEST_DSN")
	if dsn == "" {
		t.Skip("DISPATCH_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	if _, err := db.Exec(ctx, "TRUNCATE TABLE users, drivers, partners, operators"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return NewStore(db)
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	path := filepath.Join(root, "migrations", "0001_init.sql")
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, stmt := range splitSQL(stripSQLComments(string(content))) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
