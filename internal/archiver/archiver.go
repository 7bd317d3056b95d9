// Package archiver implements the background consumer that persists text
// messages through the gateway. It is strictly single-consumer, so persisted
// order matches arrival order at the archiver (which may differ from global
// chronological order across concurrent authors).
package archiver

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/relaywire/chat-relay/internal/queue"
	"github.com/relaywire/chat-relay/internal/store"
)

// Entry is one text message queued for archiving. AuthorID is stamped by the
// session handler from its authoritative user info, never from client data.
type Entry struct {
	AuthorID int32
	Text     string
}

// Config holds archiver settings.
type Config struct {
	QueueCapacity int           // initial queue allocation
	AppendTimeout time.Duration // bound on a single gateway append
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 64,
		AppendTimeout: 5 * time.Second,
	}
}

// Archiver drains an unbounded queue of entries into the gateway.
type Archiver struct {
	cfg     Config
	gateway store.Gateway
	logger  *slog.Logger

	input *queue.Queue[Entry]
	wg    sync.WaitGroup
}

// New creates an archiver. Call Start before Enqueue.
func New(cfg Config, gateway store.Gateway, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		cfg:     cfg,
		gateway: gateway,
		logger:  logger.With("component", "archiver"),
		input:   queue.New[Entry](cfg.QueueCapacity),
	}
}

// Enqueue adds one entry for persistence. Never blocks on gateway I/O.
func (a *Archiver) Enqueue(authorID int32, text string) {
	if !a.input.Push(Entry{AuthorID: authorID, Text: text}) {
		a.logger.Warn("archiver stopped, dropping message", "author_id", authorID)
	}
}

// Start begins the single consumer goroutine.
func (a *Archiver) Start() {
	a.wg.Add(1)
	go a.consumeLoop()
	a.logger.Info("archiver started")
}

// Stop closes the queue, drains what is already buffered, and waits for the
// consumer to finish (or the context to expire).
func (a *Archiver) Stop(ctx context.Context) error {
	a.input.Close()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("archiver stopped")
	case <-ctx.Done():
		a.logger.Warn("archiver stop timed out", "buffered", a.input.Len())
	}
	return nil
}

// Stats returns queue counters.
func (a *Archiver) Stats() queue.Stats {
	return a.input.Stats()
}

// consumeLoop persists entries one at a time. A failed append drops that one
// message from durable history; the archiver keeps going.
func (a *Archiver) consumeLoop() {
	defer a.wg.Done()

	for {
		entry, ok := a.input.Pop()
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.AppendTimeout)
		err := a.gateway.AppendMessage(ctx, entry.AuthorID, entry.Text)
		cancel()

		if err != nil {
			a.logger.Error("failed to archive message",
				"author_id", entry.AuthorID,
				"error", err,
			)
		}
	}
}
