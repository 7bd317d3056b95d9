package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaywire/chat-relay/internal/auth"
	"github.com/relaywire/chat-relay/internal/protocol"
)

// uniqueViolation is the Postgres error code for duplicate key violations.
const uniqueViolation = "23505"

// Postgres implements Gateway on a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres creates a Postgres gateway.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{
		pool:   pool,
		logger: logger.With("component", "store"),
	}
}

// Login verifies credentials against the stored salted hash and resolves the
// user's color. Accounts without a color record fall back to white.
func (p *Postgres) Login(ctx context.Context, username, password string) (UserRecord, error) {
	var (
		id      int32
		hash    string
		colorID *int32
	)

	err := p.pool.QueryRow(ctx,
		`SELECT id, password, color_id FROM users WHERE username = $1`,
		username,
	).Scan(&id, &hash, &colorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserRecord{}, ErrInvalidCredentials
	}
	if err != nil {
		return UserRecord{}, fmt.Errorf("query user %q: %w", username, err)
	}

	ok, err := auth.VerifyPassword(password, hash)
	if err != nil {
		return UserRecord{}, fmt.Errorf("verify password for user %d: %w", id, err)
	}
	if !ok {
		return UserRecord{}, ErrInvalidCredentials
	}

	color, err := p.resolveColor(ctx, colorID)
	if err != nil {
		return UserRecord{}, err
	}

	return UserRecord{ID: id, Username: username, Color: color}, nil
}

// Register creates the color row and the user row in one transaction.
func (p *Postgres) Register(ctx context.Context, username, password string, r, g, b uint8) (UserRecord, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return UserRecord{}, fmt.Errorf("hash password: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return UserRecord{}, fmt.Errorf("begin register: %w", err)
	}
	defer tx.Rollback(ctx)

	var colorID int32
	err = tx.QueryRow(ctx,
		`INSERT INTO colors (r, g, b) VALUES ($1, $2, $3) RETURNING id`,
		int16(r), int16(g), int16(b),
	).Scan(&colorID)
	if err != nil {
		return UserRecord{}, fmt.Errorf("insert color: %w", err)
	}

	var id int32
	err = tx.QueryRow(ctx,
		`INSERT INTO users (username, password, color_id) VALUES ($1, $2, $3) RETURNING id`,
		username, hash, colorID,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return UserRecord{}, ErrUsernameTaken
		}
		return UserRecord{}, fmt.Errorf("insert user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return UserRecord{}, fmt.Errorf("commit register: %w", err)
	}

	return UserRecord{
		ID:       id,
		Username: username,
		Color:    protocol.RGB{R: r, G: g, B: b},
	}, nil
}

// FetchRecent returns the latest archived messages in chronological order,
// each with the author's persisted username and color at query time.
func (p *Postgres) FetchRecent(ctx context.Context, limit int) ([]ArchivedMessage, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT text, user_id, username, color_r, color_g, color_b FROM (
			SELECT m.id, m.text, m.user_id, u.username,
			       COALESCE(c.r, 255) AS color_r,
			       COALESCE(c.g, 255) AS color_g,
			       COALESCE(c.b, 255) AS color_b
			FROM messages m
			JOIN users u ON u.id = m.user_id
			LEFT JOIN colors c ON c.id = u.color_id
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT $1
		) recent
		ORDER BY id`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent messages: %w", err)
	}
	defer rows.Close()

	var history []ArchivedMessage
	for rows.Next() {
		var (
			msg     ArchivedMessage
			r, g, b int16
		)
		if err := rows.Scan(&msg.Text, &msg.Author.ID, &msg.Author.Username, &r, &g, &b); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		msg.Author.Color = protocol.RGB{R: uint8(r), G: uint8(g), B: uint8(b)}
		history = append(history, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read message rows: %w", err)
	}

	return history, nil
}

// AppendMessage persists one text message.
func (p *Postgres) AppendMessage(ctx context.Context, userID int32, text string) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO messages (user_id, text) VALUES ($1, $2)`,
		userID, text,
	)
	if err != nil {
		return fmt.Errorf("insert message for user %d: %w", userID, err)
	}
	return nil
}

// resolveColor loads a color row, falling back to white when the user has no
// color reference or the row is gone.
func (p *Postgres) resolveColor(ctx context.Context, colorID *int32) (protocol.RGB, error) {
	if colorID == nil {
		return protocol.White, nil
	}

	var r, g, b int16
	err := p.pool.QueryRow(ctx,
		`SELECT r, g, b FROM colors WHERE id = $1`,
		*colorID,
	).Scan(&r, &g, &b)
	if errors.Is(err, pgx.ErrNoRows) {
		p.logger.Warn("dangling color reference", "color_id", *colorID)
		return protocol.White, nil
	}
	if err != nil {
		return protocol.RGB{}, fmt.Errorf("query color %d: %w", *colorID, err)
	}

	return protocol.RGB{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}
