// Package device implements the lost-and-found device registry.
//
// A device is a lost-or-found item record exclusively owned by one user.
// The package provides:
//
//   - Device: the core entity (name, category, location, status, coordinates)
//   - Repository: SQLite persistence with transactional mutations
//   - Service: CRUD, substring search, per-owner statistics, and a
//     nearby-devices query built on the geo package
//
// Ownership is enforced in the Service: a device is mutable only by the
// user referenced by its owner_id. The global listing (ListAll) is the one
// deliberate exception and is visible to any authenticated caller.
//
// Status is a two-state machine, {lost, found}, freely transitionable by
// the owner in either direction. There are no other states and no
// automatic transitions.
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db)
//	svc := device.NewService(repo, logger)
//
//	dev, err := svc.Create(ctx, owner.ID, device.CreateInput{
//	    Name:   "Pixel 8",
//	    Status: device.StatusLost,
//	})
package device
