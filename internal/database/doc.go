// Package database provides the Postgres connection pool backing the
// auth/persistence gateway (user accounts, username colors, archived
// messages).
package database
