package device

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/finderapp/lostfound-core/internal/infrastructure/logging"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "devices_test.db")
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT UNIQUE,
			password_hash TEXT NOT NULL,
			is_admin      INTEGER NOT NULL DEFAULT 0,
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		) STRICT;

		CREATE TABLE devices (
			id          TEXT PRIMARY KEY,
			owner_id    TEXT NOT NULL,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT '',
			location    TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'lost' CHECK (status IN ('lost', 'found')),
			latitude    REAL,
			longitude   REAL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL,
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create test schema: %v", err)
	}
	return db
}

func testLogger() *logging.Logger {
	return logging.Default()
}

func seedOwner(t *testing.T, db *sql.DB, username string) string {
	t.Helper()

	id := "usr-" + uuid.New().String()[:8]
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.Exec(`
		INSERT INTO users (id, username, email, password_hash, is_admin, created_at, updated_at)
		VALUES (?, ?, NULL, 'x', 0, ?, ?)`, id, username, now, now)
	if err != nil {
		t.Fatalf("seed owner %s: %v", username, err)
	}
	return id
}

// seedDevice inserts directly so tests can control timestamps and
// verify ordering independently of the repository's Create.
func seedDevice(t *testing.T, db *sql.DB, ownerID, name string, status Status, createdAt time.Time) string {
	t.Helper()

	id := "dev-" + uuid.New().String()[:8]
	ts := createdAt.UTC().Format(time.RFC3339)
	_, err := db.Exec(`
		INSERT INTO devices (id, owner_id, name, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`, id, ownerID, name, string(status), ts, ts)
	if err != nil {
		t.Fatalf("seed device %s: %v", name, err)
	}
	return id
}

func mustCreate(t *testing.T, svc *Service, ownerID string, in CreateInput) *Device {
	t.Helper()

	d, err := svc.Create(context.Background(), ownerID, in)
	if err != nil {
		t.Fatalf("create device %q: %v", in.Name, err)
	}
	return d
}

func ptrStr(s string) *string { return &s }

func ptrFloat(f float64) *float64 { return &f }

func ptrStatus(s Status) *Status { return &s }
