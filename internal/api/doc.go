// Package api implements the HTTP REST API for the lost-and-found registry.
//
// This package provides:
//   - REST endpoints for account registration, login and profile lookup
//   - Device CRUD, search, statistics and nearby-device endpoints
//   - Bearer-token authentication resolving the current user into the
//     request context
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// The API server is a thin dispatch layer: handlers decode and validate
// the wire format, then delegate to the auth and device services, which
// own all business rules. Sentinel errors from the services are
// translated to a structured JSON error envelope here and nowhere else.
//
// # Security
//
// All device routes and the profile route require a JWT bearer token
// issued by POST /api/auth/login. Tokens are stateless; logout is
// client-side discard.
package api
