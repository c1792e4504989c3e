package device

import "time"

// Status is the lifecycle state of a registered device. It is a two-value
// state machine; the owner may flip a device between the states at will.
type Status string

const (
	// StatusLost marks a device its owner is still looking for.
	StatusLost Status = "lost"

	// StatusFound marks a device that has been recovered.
	StatusFound Status = "found"
)

// Valid reports whether s is one of the recognised status values.
func (s Status) Valid() bool {
	return s == StatusLost || s == StatusFound
}

// Device is a lost-or-found item record. Latitude and Longitude are
// pointers because a record may legitimately carry no position: a nil
// coordinate serialises as JSON null and is stored as SQL NULL.
type Device struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	OwnerUsername string    `json:"owner_username,omitempty"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Location      string    `json:"location"`
	Status        Status    `json:"status"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Stats is the per-owner aggregate returned by the statistics endpoint.
type Stats struct {
	Total int `json:"total_devices"`
	Lost  int `json:"lost_devices"`
	Found int `json:"found_devices"`
}

// CreateInput carries the fields accepted when registering a device.
// Name is the only required field; Status defaults to StatusLost when
// empty. Coordinates are optional and independent of each other.
type CreateInput struct {
	Name        string
	Description string
	Category    string
	Location    string
	Status      Status
	Latitude    *float64
	Longitude   *float64
}

// OptionalCoordinate distinguishes "field absent from the request" from
// "field present with value null". Set=false leaves the stored value
// untouched; Set=true with a nil Value clears it.
type OptionalCoordinate struct {
	Set   bool
	Value *float64
}

// UpdateInput carries a partial update. Nil pointers mean "leave the
// stored value alone". An invalid Status value is silently ignored
// rather than rejected, so a partial update never fails on the status
// field alone.
type UpdateInput struct {
	Name        *string
	Description *string
	Category    *string
	Location    *string
	Status      *Status
	Latitude    OptionalCoordinate
	Longitude   OptionalCoordinate
}

// NearbyDevice pairs a device with its great-circle distance from the
// query point.
type NearbyDevice struct {
	Device
	DistanceKm float64 `json:"distance_km"`
}
