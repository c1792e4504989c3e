package device

import (
	"context"
	"errors"
	"testing"
)

func newTestService(t *testing.T) (*Service, *SQLiteRepository, func(username string) string) {
	t.Helper()

	db := testDB(t)
	repo := NewSQLiteRepository(db)
	svc := NewService(repo, testLogger())
	return svc, repo, func(username string) string {
		return seedOwner(t, db, username)
	}
}

func TestServiceCreateDefaults(t *testing.T) {
	svc, _, seed := newTestService(t)
	alice := seed("alice")

	d := mustCreate(t, svc, alice, CreateInput{Name: "  Pixel 8  "})
	if d.Name != "Pixel 8" {
		t.Errorf("Name = %q, want trimmed %q", d.Name, "Pixel 8")
	}
	if d.Status != StatusLost {
		t.Errorf("Status = %q, want default lost", d.Status)
	}
	if d.OwnerUsername != "alice" {
		t.Errorf("OwnerUsername = %q, want alice", d.OwnerUsername)
	}
	if d.Latitude != nil || d.Longitude != nil {
		t.Error("coordinates should be nil when not supplied")
	}
}

func TestServiceCreateValidation(t *testing.T) {
	svc, _, seed := newTestService(t)
	alice := seed("alice")
	ctx := context.Background()

	if _, err := svc.Create(ctx, alice, CreateInput{Name: "   "}); !errors.Is(err, ErrNameRequired) {
		t.Errorf("blank name error = %v, want ErrNameRequired", err)
	}
	if _, err := svc.Create(ctx, alice, CreateInput{Name: "Keys", Status: "misplaced"}); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("bad status error = %v, want ErrInvalidStatus", err)
	}
}

func TestServiceUpdatePartial(t *testing.T) {
	svc, _, seed := newTestService(t)
	alice := seed("alice")
	ctx := context.Background()

	d := mustCreate(t, svc, alice, CreateInput{
		Name:        "Wallet",
		Description: "leather",
		Category:    "accessory",
		Latitude:    ptrFloat(51.5),
		Longitude:   ptrFloat(-0.12),
	})

	got, err := svc.Update(ctx, alice, d.ID, UpdateInput{
		Name:     ptrStr("Brown wallet"),
		Location: ptrStr("Victoria Station"),
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if got.Name != "Brown wallet" || got.Location != "Victoria Station" {
		t.Errorf("updated fields did not land: %+v", got)
	}
	if got.Description != "leather" || got.Category != "accessory" {
		t.Errorf("absent fields must keep stored values: %+v", got)
	}
	if got.Latitude == nil || *got.Latitude != 51.5 {
		t.Errorf("absent coordinate changed: %v", got.Latitude)
	}
}

func TestServiceUpdateIgnoresInvalidStatus(t *testing.T) {
	svc, _, seed := newTestService(t)
	alice := seed("alice")
	ctx := context.Background()

	d := mustCreate(t, svc, alice, CreateInput{Name: "Keys"})

	// A bad status in a partial update is skipped, not rejected; the
	// rest of the patch still applies.
	got, err := svc.Update(ctx, alice, d.ID, UpdateInput{
		Name:   ptrStr("House keys"),
		Status: ptrStatus("misplaced"),
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if got.Status != StatusLost {
		t.Errorf("Status = %q, want lost (invalid value ignored)", got.Status)
	}
	if got.Name != "House keys" {
		t.Errorf("Name = %q, rest of patch should still apply", got.Name)
	}
}

func TestServiceUpdateClearsCoordinates(t *testing.T) {
	svc, _, seed := newTestService(t)
	alice := seed("alice")
	ctx := context.Background()

	d := mustCreate(t, svc, alice, CreateInput{
		Name:      "Bike",
		Latitude:  ptrFloat(51.5),
		Longitude: ptrFloat(-0.12),
	})

	got, err := svc.Update(ctx, alice, d.ID, UpdateInput{
		Latitude:  OptionalCoordinate{Set: true, Value: nil},
		Longitude: OptionalCoordinate{Set: true, Value: ptrFloat(0)},
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if got.Latitude != nil {
		t.Errorf("Latitude = %v, want cleared to nil", got.Latitude)
	}
	// Zero is a real longitude (the Greenwich meridian), not "unset".
	if got.Longitude == nil || *got.Longitude != 0 {
		t.Errorf("Longitude = %v, want 0", got.Longitude)
	}
}

func TestServiceOwnershipEnforced(t *testing.T) {
	svc, repo, seed := newTestService(t)
	alice := seed("alice")
	bob := seed("bob")
	ctx := context.Background()

	d := mustCreate(t, svc, alice, CreateInput{Name: "Pixel 8"})

	if _, err := svc.Update(ctx, bob, d.ID, UpdateInput{Name: ptrStr("mine now")}); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Update() by non-owner error = %v, want ErrNotOwner", err)
	}
	if _, err := svc.UpdateStatus(ctx, bob, d.ID, StatusFound); !errors.Is(err, ErrNotOwner) {
		t.Errorf("UpdateStatus() by non-owner error = %v, want ErrNotOwner", err)
	}
	if err := svc.Delete(ctx, bob, d.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Delete() by non-owner error = %v, want ErrNotOwner", err)
	}

	// The record must be untouched after the rejected attempts.
	got, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Name != "Pixel 8" || got.Status != StatusLost {
		t.Errorf("device mutated by non-owner: %+v", got)
	}
}

func TestServiceUpdateStatus(t *testing.T) {
	svc, _, seed := newTestService(t)
	alice := seed("alice")
	ctx := context.Background()

	d := mustCreate(t, svc, alice, CreateInput{Name: "Keys"})

	got, err := svc.UpdateStatus(ctx, alice, d.ID, StatusFound)
	if err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	if got.Status != StatusFound {
		t.Errorf("Status = %q, want found", got.Status)
	}

	// The dedicated status endpoint is strict about its one field.
	if _, err := svc.UpdateStatus(ctx, alice, d.ID, "misplaced"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("UpdateStatus() with bad value error = %v, want ErrInvalidStatus", err)
	}
	if _, err := svc.UpdateStatus(ctx, alice, "dev-missing", StatusLost); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("UpdateStatus() on missing device error = %v, want ErrDeviceNotFound", err)
	}
}

func TestServiceDelete(t *testing.T) {
	svc, _, seed := newTestService(t)
	alice := seed("alice")
	ctx := context.Background()

	d := mustCreate(t, svc, alice, CreateInput{Name: "Umbrella"})
	if err := svc.Delete(ctx, alice, d.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	devices, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(devices) != 0 {
		t.Errorf("List() after delete returned %d devices, want 0", len(devices))
	}
	if err := svc.Delete(ctx, alice, d.ID); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Delete() on missing device error = %v, want ErrDeviceNotFound", err)
	}
}

func TestServiceSearchBlankQuery(t *testing.T) {
	svc, _, seed := newTestService(t)
	alice := seed("alice")
	ctx := context.Background()

	mustCreate(t, svc, alice, CreateInput{Name: "Pixel 8"})

	for _, q := range []string{"", "   "} {
		got, err := svc.Search(ctx, alice, q)
		if err != nil {
			t.Fatalf("Search(%q) error: %v", q, err)
		}
		if len(got) != 0 {
			t.Errorf("Search(%q) returned %d devices, want 0", q, len(got))
		}
	}
}

func TestServiceSearchScopedToOwner(t *testing.T) {
	svc, _, seed := newTestService(t)
	alice := seed("alice")
	bob := seed("bob")
	ctx := context.Background()

	mustCreate(t, svc, alice, CreateInput{Name: "Pixel 8"})
	mustCreate(t, svc, bob, CreateInput{Name: "Pixel Watch"})

	got, err := svc.Search(ctx, alice, "pixel")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Pixel 8" {
		t.Errorf("Search() must only see the caller's devices, got %+v", got)
	}
}

func TestServiceStats(t *testing.T) {
	svc, _, seed := newTestService(t)
	alice := seed("alice")
	ctx := context.Background()

	mustCreate(t, svc, alice, CreateInput{Name: "a"})
	mustCreate(t, svc, alice, CreateInput{Name: "b", Status: StatusFound})

	stats := svc.Stats(ctx, alice)
	if stats.Total != 2 || stats.Lost != 1 || stats.Found != 1 {
		t.Errorf("Stats() = %+v, want {Total:2 Lost:1 Found:1}", stats)
	}
}

func TestServiceStatsDegradesToZeros(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)
	svc := NewService(repo, testLogger())

	// Drop the table so the aggregate query fails.
	if _, err := db.Exec(`DROP TABLE devices`); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	stats := svc.Stats(context.Background(), "usr-anyone")
	if stats != (Stats{}) {
		t.Errorf("Stats() on storage failure = %+v, want zeros", stats)
	}
}

func TestServiceNearby(t *testing.T) {
	svc, _, seed := newTestService(t)
	alice := seed("alice")
	ctx := context.Background()

	// Trafalgar Square as the query point; devices at increasing
	// distances plus one with no position.
	mustCreate(t, svc, alice, CreateInput{
		Name: "close", Latitude: ptrFloat(51.5080), Longitude: ptrFloat(-0.1281),
	})
	mustCreate(t, svc, alice, CreateInput{
		Name: "across-town", Latitude: ptrFloat(51.5360), Longitude: ptrFloat(-0.1390),
	})
	mustCreate(t, svc, alice, CreateInput{
		Name: "paris", Latitude: ptrFloat(48.8566), Longitude: ptrFloat(2.3522),
	})
	mustCreate(t, svc, alice, CreateInput{Name: "no-position"})

	got, err := svc.Nearby(ctx, alice, 51.5080, -0.1281, 10)
	if err != nil {
		t.Fatalf("Nearby() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Nearby() returned %d devices, want 2", len(got))
	}
	if got[0].Name != "close" || got[1].Name != "across-town" {
		t.Errorf("Nearby() order = %q, %q; want nearest first", got[0].Name, got[1].Name)
	}
	if got[0].DistanceKm > got[1].DistanceKm {
		t.Error("Nearby() results not sorted by distance")
	}
}

func TestServiceNearbyDefaultRadius(t *testing.T) {
	svc, _, seed := newTestService(t)
	alice := seed("alice")
	ctx := context.Background()

	mustCreate(t, svc, alice, CreateInput{
		Name: "close", Latitude: ptrFloat(51.5080), Longitude: ptrFloat(-0.1281),
	})
	mustCreate(t, svc, alice, CreateInput{
		Name: "paris", Latitude: ptrFloat(48.8566), Longitude: ptrFloat(2.3522),
	})

	// Zero radius falls back to the default, which excludes Paris.
	got, err := svc.Nearby(ctx, alice, 51.5080, -0.1281, 0)
	if err != nil {
		t.Fatalf("Nearby() error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "close" {
		t.Errorf("Nearby() with default radius = %+v, want just the close device", got)
	}
}

func TestServiceListAllSeesEveryOwner(t *testing.T) {
	svc, _, seed := newTestService(t)
	alice := seed("alice")
	bob := seed("bob")
	ctx := context.Background()

	mustCreate(t, svc, alice, CreateInput{Name: "alices"})
	mustCreate(t, svc, bob, CreateInput{Name: "bobs"})

	all, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListAll() returned %d devices, want 2", len(all))
	}

	mine, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(mine) != 1 || mine[0].Name != "alices" {
		t.Errorf("List() = %+v, want only alice's device", mine)
	}
}
