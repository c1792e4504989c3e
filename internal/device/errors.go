package device

import "errors"

var (
	// ErrDeviceNotFound indicates the requested device id does not exist.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrNotOwner indicates the caller does not own the device it tried
	// to mutate.
	ErrNotOwner = errors.New("device belongs to another user")

	// ErrNameRequired indicates a create request with an empty or
	// whitespace-only name.
	ErrNameRequired = errors.New("device name is required")

	// ErrInvalidStatus indicates a status value outside {lost, found}
	// where one was explicitly required.
	ErrInvalidStatus = errors.New("status must be 'lost' or 'found'")
)
