package device

import (
	"context"
	"sort"
	"strings"

	"github.com/finderapp/lostfound-core/internal/geo"
	"github.com/finderapp/lostfound-core/internal/infrastructure/logging"
)

// DefaultNearbyRadiusKm is used by Nearby when the caller supplies no
// radius.
const DefaultNearbyRadiusKm = 10.0

// Service implements the device registry use cases on top of a
// Repository. All ownership checks live here; the repository trusts its
// callers.
type Service struct {
	repo   Repository
	logger *logging.Logger
}

// NewService creates a device service.
func NewService(repo Repository, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// List returns the caller's own devices, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]Device, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// ListAll returns every device in the registry regardless of owner. The
// community listing is how finders discover who lost what, so it is
// intentionally not scoped to the caller.
func (s *Service) ListAll(ctx context.Context) ([]Device, error) {
	return s.repo.ListAll(ctx)
}

// Create registers a new device for ownerID. Name is required; an empty
// status defaults to StatusLost and anything outside {lost, found} is
// rejected.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*Device, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	status := in.Status
	if status == "" {
		status = StatusLost
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	d := &Device{
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Location:    strings.TrimSpace(in.Location),
		Status:      status,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info("device registered",
		"device_id", d.ID,
		"owner_id", ownerID,
		"status", string(d.Status))

	// Re-read to pick up the owner username from the join.
	return s.repo.GetByID(ctx, d.ID)
}

// Update applies a partial update to a device the caller owns. Absent
// fields keep their stored values; an unrecognised status value is
// ignored rather than rejected, so the rest of the patch still lands.
func (s *Service) Update(ctx context.Context, ownerID, id string, in UpdateInput) (*Device, error) {
	d, err := s.authorise(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" {
			d.Name = name
		}
	}
	if in.Description != nil {
		d.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		d.Category = strings.TrimSpace(*in.Category)
	}
	if in.Location != nil {
		d.Location = strings.TrimSpace(*in.Location)
	}
	if in.Status != nil && in.Status.Valid() {
		d.Status = *in.Status
	}
	if in.Latitude.Set {
		d.Latitude = in.Latitude.Value
	}
	if in.Longitude.Set {
		d.Longitude = in.Longitude.Value
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info("device updated", "device_id", d.ID, "owner_id", ownerID)
	return d, nil
}

// UpdateStatus flips a device between lost and found. Unlike the
// partial update, an explicit status change with a bad value is an
// error.
func (s *Service) UpdateStatus(ctx context.Context, ownerID, id string, status Status) (*Device, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	d, err := s.authorise(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	d.Status = status
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info("device status changed",
		"device_id", d.ID,
		"owner_id", ownerID,
		"status", string(status))
	return d, nil
}

// Delete removes a device the caller owns.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.authorise(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("device deleted", "device_id", id, "owner_id", ownerID)
	return nil
}

// Search finds the caller's devices whose name, description, category
// or location contains the query substring. A blank query matches
// nothing.
func (s *Service) Search(ctx context.Context, ownerID, query string) ([]Device, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Device{}, nil
	}
	return s.repo.Search(ctx, ownerID, query)
}

// Stats returns the caller's device counts. A storage failure degrades
// to all-zero counts rather than an error; the failure is still logged
// so it is visible server-side.
func (s *Service) Stats(ctx context.Context, ownerID string) Stats {
	stats, err := s.repo.OwnerStats(ctx, ownerID)
	if err != nil {
		s.logger.Error("stats query failed", "owner_id", ownerID, "error", err)
		return Stats{}
	}
	return stats
}

// Nearby returns the caller's devices within radiusKm of the given
// point, nearest first. Devices without coordinates never match.
func (s *Service) Nearby(ctx context.Context, ownerID string, lat, lon, radiusKm float64) ([]NearbyDevice, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultNearbyRadiusKm
	}

	devices, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	nearby := make([]NearbyDevice, 0)
	for _, d := range devices {
		// DistanceKm returns +Inf for devices without a position, so
		// they never fall inside the radius.
		dist := geo.DistanceKm(&lat, &lon, d.Latitude, d.Longitude)
		if dist <= radiusKm {
			nearby = append(nearby, NearbyDevice{Device: d, DistanceKm: dist})
		}
	}
	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	return nearby, nil
}

// Count reports the registry-wide device total for health reporting.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// authorise loads a device and verifies the caller owns it.
func (s *Service) authorise(ctx context.Context, ownerID, id string) (*Device, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return d, nil
}
