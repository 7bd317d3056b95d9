package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/google/uuid"

	"github.com/relaywire/chat-relay/internal/archiver"
	"github.com/relaywire/chat-relay/internal/protocol"
	"github.com/relaywire/chat-relay/internal/store"
)

// shutdownNotice is sent (best effort) to every connected client when the
// server stops.
const shutdownNotice = "Server is stopped. Try connect later."

// session owns one client connection: its read loop, its user info, and its
// registry entry. User info is mutated only here, in response to this
// client's own requests.
type session struct {
	id   uuid.UUID
	conn FrameConn
	user protocol.UserInfo

	registry     *Registry
	dispatcher   *Dispatcher
	archiver     *archiver.Archiver
	gateway      store.Gateway
	historyLimit int
	logger       *slog.Logger
}

// readResult is one decoded frame or the read error that ended the loop.
type readResult struct {
	env protocol.Envelope
	err error
}

// run processes inbound frames until the client disconnects, a fatal
// connection error occurs, or the shutdown signal fires. The registry entry
// is removed before run returns, on every path.
func (s *session) run(ctx context.Context) {
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.conn.Close()

	// Unbuffered: the reader stays one frame ahead at most, and inbound
	// processing remains strictly sequential.
	frames := make(chan readResult)
	go s.readLoop(sctx, frames)

	for {
		select {
		case <-ctx.Done():
			// Best effort; the client may already be gone.
			_ = s.conn.WriteEnvelope(protocol.NewEnvelope(
				protocol.UnrecoverableErrorPayload(shutdownNotice), s.user))
			s.registry.Remove(s.id)
			s.logger.Info("session closed by shutdown", "conn_id", s.id)
			return

		case res := <-frames:
			if res.err != nil {
				s.registry.Remove(s.id)
				s.logReadError(res.err)
				return
			}
			if done := s.process(ctx, res.env); done {
				return
			}
		}
	}
}

// readLoop decodes frames and hands them to run. It exits on the first read
// error or once the session context is cancelled.
func (s *session) readLoop(ctx context.Context, frames chan<- readResult) {
	for {
		env, err := s.conn.ReadEnvelope()
		select {
		case frames <- readResult{env: env, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// process applies the server-side rules to one inbound envelope and routes
// the result. It returns true when the session must terminate; the registry
// entry is already removed on those paths.
func (s *session) process(ctx context.Context, env protocol.Envelope) bool {
	out, direct, err := s.apply(ctx, env)
	if err != nil {
		// Protocol violations are fatal to this connection only.
		s.registry.Remove(s.id)
		s.logger.Warn("closing session on protocol violation",
			"conn_id", s.id,
			"kind", env.Payload.Kind,
			"error", err,
		)
		return true
	}

	if direct {
		s.dispatcher.Direct(out, s.id)
		return false
	}

	s.dispatcher.Broadcast(out, s.id)

	// Text copies are archived after disposition, with the author id taken
	// from this session's authoritative user info, never from the client.
	if out.Payload.Kind == protocol.KindText {
		s.archiver.Enqueue(s.user.ID, out.Payload.Text)
	}

	if out.Payload.Kind == protocol.KindUserDisconnected {
		s.registry.Remove(s.id)
		s.logger.Info("client disconnected", "conn_id", s.id, "username", s.user.Username)
		return true
	}
	return false
}

// apply is the canonical dispatch table: it rebuilds the outbound envelope
// for one inbound payload, updating session user info where the rules say
// so. direct marks envelopes that go only to the requester.
func (s *session) apply(ctx context.Context, env protocol.Envelope) (out protocol.Envelope, direct bool, err error) {
	p := env.Payload

	switch p.Kind {
	case protocol.KindUsernameChanged:
		// The broadcast carries the old name; the author field carries the new one.
		old := s.user.Username
		s.user.Username = p.Username
		return protocol.NewEnvelope(protocol.UsernameChangedPayload(old), s.user), false, nil

	case protocol.KindColorChanged:
		old := s.user.Color
		if p.Color != nil {
			s.user.Color = *p.Color
		}
		return protocol.NewEnvelope(protocol.ColorChangedPayload(old), s.user), false, nil

	case protocol.KindText, protocol.KindFile, protocol.KindImage,
		protocol.KindUserConnected, protocol.KindUserDisconnected,
		protocol.KindRecoverableError, protocol.KindUnrecoverableError:
		return protocol.NewEnvelope(p, s.user), false, nil

	case protocol.KindLoginRequest:
		return s.login(ctx, p), true, nil

	case protocol.KindRegisterRequest:
		return s.register(ctx, p), true, nil

	case protocol.KindHistoryRequest:
		return s.history(ctx), true, nil

	case protocol.KindLoginResponse, protocol.KindRegisterResponse, protocol.KindHistoryResponse:
		return protocol.Envelope{}, false, fmt.Errorf("%w: %s", protocol.ErrDirection, p.Kind)

	default:
		// Decode already rejects unknown kinds; this guards new kinds that
		// have no rule yet.
		return protocol.Envelope{}, false, fmt.Errorf("%w: unhandled kind %q", protocol.ErrMalformed, p.Kind)
	}
}

// login resolves credentials through the gateway. On success the session
// adopts the stored account; on any failure the reply is a rejection and the
// connection stays open.
func (s *session) login(ctx context.Context, p protocol.Payload) protocol.Envelope {
	rec, err := s.gateway.Login(ctx, p.Username, p.Password)
	if err != nil {
		if !errors.Is(err, store.ErrInvalidCredentials) {
			s.logger.Error("login failed", "conn_id", s.id, "username", p.Username, "error", err)
		}
		return protocol.NewEnvelope(protocol.LoginResponsePayload(nil), s.user)
	}

	s.user = protocol.UserInfo{ID: rec.ID, Username: rec.Username, Color: rec.Color}
	s.logger.Info("user logged in", "conn_id", s.id, "user_id", rec.ID, "username", rec.Username)

	user := s.user
	return protocol.NewEnvelope(protocol.LoginResponsePayload(&user), s.user)
}

// register creates an account through the gateway and adopts it on success.
func (s *session) register(ctx context.Context, p protocol.Payload) protocol.Envelope {
	color := protocol.White
	if p.Color != nil {
		color = *p.Color
	}

	rec, err := s.gateway.Register(ctx, p.Username, p.Password, color.R, color.G, color.B)
	if err != nil {
		s.logger.Warn("registration failed", "conn_id", s.id, "username", p.Username, "error", err)
		return protocol.NewEnvelope(protocol.RegisterResponsePayload(nil), s.user)
	}

	s.user = protocol.UserInfo{ID: rec.ID, Username: rec.Username, Color: rec.Color}
	s.logger.Info("user registered", "conn_id", s.id, "user_id", rec.ID, "username", rec.Username)

	user := s.user
	return protocol.NewEnvelope(protocol.RegisterResponsePayload(&user), s.user)
}

// history fetches the recent archive. A failed fetch degrades to a
// recoverable error for the requester; the connection stays usable.
func (s *session) history(ctx context.Context) protocol.Envelope {
	msgs, err := s.gateway.FetchRecent(ctx, s.historyLimit)
	if err != nil {
		s.logger.Error("history fetch failed", "conn_id", s.id, "error", err)
		return protocol.NewEnvelope(
			protocol.RecoverableErrorPayload("Could not load message history."), s.user)
	}

	entries := make([]protocol.HistoryEntry, len(msgs))
	for i, m := range msgs {
		entries[i] = protocol.HistoryEntry{Text: m.Text, Author: m.Author}
	}
	return protocol.NewEnvelope(protocol.HistoryResponsePayload(entries), s.user)
}

// logReadError keeps expected disconnects quiet and surfaces the rest.
func (s *session) logReadError(err error) {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		s.logger.Info("client connection closed", "conn_id", s.id)
	case errors.Is(err, protocol.ErrMalformed):
		s.logger.Warn("closing session on malformed frame", "conn_id", s.id, "error", err)
	default:
		s.logger.Warn("closing session on read error", "conn_id", s.id, "error", err)
	}
}
