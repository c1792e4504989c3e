package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for devices. Implementations
// must run every mutation inside a single transaction so a failed write
// never leaves a partial record behind.
type Repository interface {
	Create(ctx context.Context, d *Device) error
	GetByID(ctx context.Context, id string) (*Device, error)
	Update(ctx context.Context, d *Device) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]Device, error)
	ListAll(ctx context.Context) ([]Device, error)
	Search(ctx context.Context, ownerID, query string) ([]Device, error)
	OwnerStats(ctx context.Context, ownerID string) (Stats, error)
	Count(ctx context.Context) (int, error)
}

// SQLiteRepository persists devices in SQLite. Every read joins the
// users table so callers get the owner's username without a second
// query.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository backed by db.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// deviceColumns is the shared select list; every query that produces a
// Device must keep its column order in sync with scanDevice.
const deviceColumns = `
	d.id, d.owner_id, u.username, d.name, d.description, d.category,
	d.location, d.status, d.latitude, d.longitude, d.created_at, d.updated_at`

// Create inserts a new device record. The caller-visible ID is
// generated here; CreatedAt and UpdatedAt are stamped with the same
// instant.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	if d.ID == "" {
		d.ID = "dev-" + uuid.New().String()[:8]
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO devices (id, owner_id, name, description, category,
			location, status, latitude, longitude, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.OwnerID, d.Name, d.Description, d.Category, d.Location,
		string(d.Status), nullFloat(d.Latitude), nullFloat(d.Longitude),
		d.CreatedAt.Format(time.RFC3339), d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert device: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID fetches a single device, returning ErrDeviceNotFound when the
// id is unknown.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+deviceColumns+`
		FROM devices d
		JOIN users u ON u.id = d.owner_id
		WHERE d.id = ?`, id)

	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query device: %w", err)
	}
	return d, nil
}

// Update rewrites every mutable column of the record and refreshes
// updated_at. The device must already exist.
func (r *SQLiteRepository) Update(ctx context.Context, d *Device) error {
	d.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE devices
		SET name = ?, description = ?, category = ?, location = ?,
			status = ?, latitude = ?, longitude = ?, updated_at = ?
		WHERE id = ?`,
		d.Name, d.Description, d.Category, d.Location, string(d.Status),
		nullFloat(d.Latitude), nullFloat(d.Longitude),
		d.UpdatedAt.Format(time.RFC3339), d.ID,
	)
	if err != nil {
		return fmt.Errorf("update device: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrDeviceNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes a device, returning ErrDeviceNotFound when the id is
// unknown.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrDeviceNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's devices, newest first. Rowid breaks
// ties between records created within the same second.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+deviceColumns+`
		FROM devices d
		JOIN users u ON u.id = d.owner_id
		WHERE d.owner_id = ?
		ORDER BY d.created_at DESC, d.rowid DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()
	return collectDevices(rows)
}

// ListAll returns every registered device, newest first.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+deviceColumns+`
		FROM devices d
		JOIN users u ON u.id = d.owner_id
		ORDER BY d.created_at DESC, d.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()
	return collectDevices(rows)
}

// Search runs a substring match over name, description, category and
// location within the owner's devices. Matching is SQLite LIKE, so it is
// case-insensitive for ASCII only.
func (r *SQLiteRepository) Search(ctx context.Context, ownerID, query string) ([]Device, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+deviceColumns+`
		FROM devices d
		JOIN users u ON u.id = d.owner_id
		WHERE d.owner_id = ?
		  AND (d.name LIKE ? ESCAPE '\'
		    OR d.description LIKE ? ESCAPE '\'
		    OR d.category LIKE ? ESCAPE '\'
		    OR d.location LIKE ? ESCAPE '\')
		ORDER BY d.created_at DESC, d.rowid DESC`,
		ownerID, pattern, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search devices: %w", err)
	}
	defer rows.Close()
	return collectDevices(rows)
}

// OwnerStats aggregates the owner's device counts in a single scan.
func (r *SQLiteRepository) OwnerStats(ctx context.Context, ownerID string) (Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'lost' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'found' THEN 1 ELSE 0 END), 0)
		FROM devices
		WHERE owner_id = ?`, ownerID).Scan(&s.Total, &s.Lost, &s.Found)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return s, nil
}

// Count returns the total number of devices across all owners.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM devices`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count devices: %w", err)
	}
	return n, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanDevice.
type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(s scanner) (*Device, error) {
	var (
		d                    Device
		status               string
		lat, lon             sql.NullFloat64
		createdAt, updatedAt string
	)
	err := s.Scan(&d.ID, &d.OwnerID, &d.OwnerUsername, &d.Name,
		&d.Description, &d.Category, &d.Location, &status,
		&lat, &lon, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	d.Status = Status(status)
	if lat.Valid {
		v := lat.Float64
		d.Latitude = &v
	}
	if lon.Valid {
		v := lon.Float64
		d.Longitude = &v
	}
	if d.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if d.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &d, nil
}

func collectDevices(rows *sql.Rows) ([]Device, error) {
	devices := make([]Device, 0)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}
	return devices, nil
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// escapeLike neutralises LIKE wildcards in user input so a query for
// "100%" matches the literal text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
