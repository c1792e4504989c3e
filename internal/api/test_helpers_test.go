package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/finderapp/lostfound-core/internal/auth"
	"github.com/finderapp/lostfound-core/internal/device"
	"github.com/finderapp/lostfound-core/internal/infrastructure/config"
	"github.com/finderapp/lostfound-core/internal/infrastructure/logging"
)

const testSecret = "test-secret-key-at-least-32-chars!"

// testServer is a fully wired API server over a temp-file database,
// exercised through its real router with httptest.
type testServer struct {
	handler http.Handler
	db      *sql.DB
	users   *auth.SQLiteUserRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "api_test.db")
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

	logger := logging.Default()
	users := auth.NewUserRepository(db)
	authSvc := auth.NewService(users, testSecret, time.Hour, logger)
	deviceSvc := device.NewService(device.NewSQLiteRepository(db), logger)

	srv, err := New(Deps{
		Config:  config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:  logger,
		Auth:    authSvc,
		Devices: deviceSvc,
		Users:   users,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("create server: %v", err)
	}

	return &testServer{handler: srv.buildRouter(), db: db, users: users}
}

// do sends a request through the router and returns the recorder.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// doRaw sends a literal JSON body, for malformed-input cases.
func (ts *testServer) doRaw(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// registerAndLogin creates an account and returns its bearer token.
func (ts *testServer) registerAndLogin(t *testing.T, username, password string) string {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", username, rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", username, rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &resp)
	if resp.Token == "" {
		t.Fatalf("login %s returned no token", username)
	}
	return resp.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response body %q: %v", rec.Body.String(), err)
	}
}

// deviceView mirrors the device JSON shape for assertions.
type deviceView struct {
	ID            string   `json:"id"`
	OwnerID       string   `json:"owner_id"`
	OwnerUsername string   `json:"owner_username"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Location      string   `json:"location"`
	Status        string   `json:"status"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}
