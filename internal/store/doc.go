// Package store defines the auth/persistence gateway contract consumed by
// the relay core, plus its Postgres implementation.
//
// The gateway owns three tables:
//   - users:    id, username, password (salted hash), color_id
//   - colors:   id, r, g, b
//   - messages: id, user_id, text, created_at
//
// Password verification happens entirely inside this package; the relay
// core only sees UserRecord results and typed errors.
package store
