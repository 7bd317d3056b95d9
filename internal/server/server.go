package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/relaywire/chat-relay/internal/archiver"
	"github.com/relaywire/chat-relay/internal/protocol"
	"github.com/relaywire/chat-relay/internal/store"
)

// Config holds listener and per-session settings.
type Config struct {
	Addr         string        // TCP listen address
	WSAddr       string        // WebSocket bridge address; empty disables the bridge
	WriteTimeout time.Duration // deadline per outbound frame write
	HistoryLimit int           // entries served per history request
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:11111",
		WriteTimeout: 5 * time.Second,
		HistoryLimit: 20,
	}
}

// Server accepts client connections and runs one session handler per
// connection until the shutdown signal fires.
type Server struct {
	cfg        Config
	registry   *Registry
	dispatcher *Dispatcher
	archiver   *archiver.Archiver
	gateway    store.Gateway
	logger     *slog.Logger

	mu sync.Mutex
	ln net.Listener

	sessions sync.WaitGroup
}

// New creates a server. The archiver must be started by the caller.
func New(cfg Config, gateway store.Gateway, arch *archiver.Archiver, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	registry := NewRegistry()
	return &Server{
		cfg:        cfg,
		registry:   registry,
		dispatcher: NewDispatcher(registry, logger),
		archiver:   arch,
		gateway:    gateway,
		logger:     logger.With("component", "server"),
	}
}

// Sessions returns the number of currently registered sessions.
func (s *Server) Sessions() int {
	return s.registry.Len()
}

// Addr returns the TCP listener address, or nil before ListenAndServe binds.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ListenAndServe accepts TCP connections until ctx is cancelled, then stops
// accepting and returns once every spawned session handler has finished.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("listening", "addr", ln.Addr().String())

	// Unblock Accept once the shutdown signal fires.
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}
		s.startSession(ctx, newTCPConn(conn, s.cfg.WriteTimeout))
	}

	s.logger.Info("listener stopped, waiting for sessions")
	s.sessions.Wait()
	s.logger.Info("all sessions finished")
	return nil
}

// ListenAndServeWS serves the WebSocket bridge until ctx is cancelled.
// Returns immediately when the bridge is disabled.
func (s *Server) ListenAndServeWS(ctx context.Context) error {
	if s.cfg.WSAddr == "" {
		return nil
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		// The envelope protocol carries its own auth; browser origin is not
		// part of the trust model.
		CheckOrigin: func(*http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		s.startSession(ctx, newWSConn(conn, s.cfg.WriteTimeout))
	})

	srv := &http.Server{Addr: s.cfg.WSAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	s.logger.Info("websocket bridge listening", "addr", s.cfg.WSAddr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket bridge: %w", err)
	}
	return nil
}

// startSession registers a new session and runs its handler.
func (s *Server) startSession(ctx context.Context, conn FrameConn) {
	if ctx.Err() != nil {
		conn.Close()
		return
	}

	sess := &session{
		id:           uuid.New(),
		conn:         conn,
		user:         protocol.AnonymousUser(),
		registry:     s.registry,
		dispatcher:   s.dispatcher,
		archiver:     s.archiver,
		gateway:      s.gateway,
		historyLimit: s.cfg.HistoryLimit,
		logger:       s.logger,
	}

	s.registry.Insert(sess.id, conn)
	s.logger.Info("client connected", "conn_id", sess.id, "remote", conn.RemoteAddr().String())

	s.sessions.Add(1)
	go func() {
		defer s.sessions.Done()
		sess.run(ctx)
	}()
}
