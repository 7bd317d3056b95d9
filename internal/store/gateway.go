package store

import (
	"context"
	"errors"

	"github.com/relaywire/chat-relay/internal/protocol"
)

// Errors
var (
	// ErrInvalidCredentials is returned by Login for an unknown username or
	// a wrong password. Recoverable: the caller surfaces a rejected login
	// and the connection stays open.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUsernameTaken is returned by Register when the username exists.
	ErrUsernameTaken = errors.New("username already taken")
)

// UserRecord is a persisted user account as seen by the relay core.
type UserRecord struct {
	ID       int32
	Username string
	Color    protocol.RGB
}

// ArchivedMessage is one persisted text message joined with its author's
// current username and color.
type ArchivedMessage struct {
	Text   string
	Author protocol.UserInfo
}

// Gateway is the auth/persistence boundary consumed by the relay core.
type Gateway interface {
	// Login verifies credentials and returns the stored account.
	// Fails with ErrInvalidCredentials on unknown user or password mismatch.
	Login(ctx context.Context, username, password string) (UserRecord, error)

	// Register creates an account with the given username color and returns
	// the created record.
	Register(ctx context.Context, username, password string, r, g, b uint8) (UserRecord, error)

	// FetchRecent returns up to limit archived text messages, oldest first.
	FetchRecent(ctx context.Context, limit int) ([]ArchivedMessage, error)

	// AppendMessage persists one text message for the given author.
	AppendMessage(ctx context.Context, userID int32, text string) error
}
