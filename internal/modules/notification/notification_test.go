// README: Notification fan-out and token pruning tests. DB-backed.
package notification

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vilamourachauffeurs/dispatch/internal/auth"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/booking"
	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

// fakeSender records the last push and reports a configured set of tokens as dead.
type fakeSender struct {
	tokens  []string
	title   string
	body    string
	data    map[string]string
	invalid []string
}

func (f *fakeSender) Send(_ context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	f.tokens = tokens
	f.title = title
	f.body = body
	f.data = data
	return f.invalid, nil
}

func TestBookingRequestedNotifiesAdmins(t *testing.T) {
	store, db := setupTestStore(t)
	sender := &fakeSender{}
	svc := NewService(store, sender)
	ctx := context.Background()

	mustInsertUser(t, db, "u_admin1", "admin")
	mustInsertUser(t, db, "u_admin2", "admin")
	mustInsertUser(t, db, "u_op", "operator")

	if err := svc.RegisterToken(ctx, auth.Context{UserID: "u_admin1"}, "tok_a1"); err != nil {
		t.Fatalf("register token: %v", err)
	}

	b := &booking.Booking{ID: "b1", Code: "260901001", Pickup: "Faro Airport", Dropoff: "Vilamoura Marina"}
	svc.BookingRequested(ctx, b)

	for _, admin := range []types.ID{"u_admin1", "u_admin2"} {
		list, err := svc.ListForUser(ctx, auth.Context{UserID: admin})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 1 || list[0].Kind != KindBookingRequest {
			t.Fatalf("expected one booking_request for %s, got %d", admin, len(list))
		}
		if list[0].BookingID == nil || *list[0].BookingID != "b1" {
			t.Fatal("expected booking reference on the record")
		}
	}

	// The operator is not part of the audience.
	list, err := svc.ListForUser(ctx, auth.Context{UserID: "u_op"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no notifications for operator, got %d", len(list))
	}

	if len(sender.tokens) != 1 || sender.tokens[0] != "tok_a1" {
		t.Fatalf("expected push to tok_a1, got %v", sender.tokens)
	}
	if sender.data["booking_id"] != "b1" {
		t.Fatalf("expected booking_id in push data, got %v", sender.data)
	}
}

func TestJobAssignedPrunesDeadTokens(t *testing.T) {
	store, _ := setupTestStore(t)
	sender := &fakeSender{invalid: []string{"tok_dead"}}
	svc := NewService(store, sender)
	ctx := context.Background()

	driver := auth.Context{UserID: "d1", Role: auth.RoleDriver}
	if err := svc.RegisterToken(ctx, driver, "tok_dead"); err != nil {
		t.Fatalf("register token: %v", err)
	}
	if err := svc.RegisterToken(ctx, driver, "tok_live"); err != nil {
		t.Fatalf("register token: %v", err)
	}

	b := &booking.Booking{ID: "b2", Code: "260901002", Pickup: "Quarteira", PickupTime: time.Now()}
	svc.JobAssigned(ctx, b, "d1")

	tokens, err := store.TokensForUsers(ctx, []types.ID{"d1"})
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != "tok_live" {
		t.Fatalf("expected only tok_live after prune, got %v", tokens)
	}
}

func TestMarkReadOwnership(t *testing.T) {
	store, _ := setupTestStore(t)
	svc := NewService(store, nil)
	ctx := context.Background()

	b := &booking.Booking{ID: "b3", Code: "260901003", Pickup: "Albufeira", PickupTime: time.Now()}
	svc.JobAssigned(ctx, b, "d1")

	list, err := svc.ListForUser(ctx, auth.Context{UserID: "d1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Read {
		t.Fatalf("expected one unread notification, got %+v", list)
	}

	// Another user cannot mark it read.
	if err := svc.MarkRead(ctx, auth.Context{UserID: "d2"}, list[0].ID); err != ErrNotFound {
		t.Fatalf("foreign mark read: expected ErrNotFound, got %v", err)
	}

	if err := svc.MarkRead(ctx, auth.Context{UserID: "d1"}, list[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	list, err = svc.ListForUser(ctx, auth.Context{UserID: "d1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !list[0].Read {
		t.Fatal("expected notification to be read")
	}
}

func TestRegisterTokenValidation(t *testing.T) {
	store, _ := setupTestStore(t)
	svc := NewService(store, nil)
	if err := svc.RegisterToken(context.Background(), auth.Context{UserID: "d1"}, ""); err != ErrBadRequest {
		t.Fatalf("empty token: expected ErrBadRequest, got %v", err)
	}
}

func mustInsertUser(t *testing.T, db *pgxpool.Pool, id string, role string) {
	t.Helper()
	_, err := db.Exec(context.Background(), `
		INSERT INTO users (id, email, name, role, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		id, id+"@example.com", id, role,
	)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
}

func setupTestStore(t *testing.T) (*Store, *pgxpool.Pool) {
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

	if _, err := db.Exec(ctx, "TRUNCATE TABLE notifications, device_tokens, users"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return NewStore(db), db
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
