// Package auth provides authentication for the Lost & Found registry.
//
// It implements:
//   - Argon2id password hashing in PHC string format
//   - Stateless HS256 JWT bearer tokens (username subject, 24 hour expiry)
//   - User registration with unique username and optional unique email
//   - Current-user resolution from a presented token
//
// Login failures are deliberately indistinguishable: an unknown username and
// a wrong password both return ErrInvalidCredentials, so the API never leaks
// which usernames exist.
//
// Tokens are self-contained and signed with the server secret. There is no
// server-side revocation list; logout is client-side token discard. A stolen
// token remains valid until it expires.
package auth
