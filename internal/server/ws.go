package server

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relaywire/chat-relay/internal/protocol"
)

// wsConn adapts a WebSocket connection to FrameConn. WebSocket frames are
// self-delimiting, so each binary message carries one serialized envelope
// without the 4-byte length prefix used on raw TCP.
type wsConn struct {
	conn *websocket.Conn

	writeMu      sync.Mutex
	writeTimeout time.Duration
}

func newWSConn(c *websocket.Conn, writeTimeout time.Duration) *wsConn {
	return &wsConn{conn: c, writeTimeout: writeTimeout}
}

func (w *wsConn) ReadEnvelope() (protocol.Envelope, error) {
	msgType, data, err := w.conn.ReadMessage()
	if err != nil {
		return protocol.Envelope{}, fmt.Errorf("read websocket message: %w", err)
	}
	if msgType != websocket.BinaryMessage {
		return protocol.Envelope{}, fmt.Errorf("%w: unexpected websocket message type %d", protocol.ErrMalformed, msgType)
	}
	return protocol.Unmarshal(data)
}

func (w *wsConn) WriteEnvelope(env protocol.Envelope) error {
	data, err := protocol.Marshal(env)
	if err != nil {
		return err
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	if w.writeTimeout > 0 {
		if err := w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}
	if err := w.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("write websocket message: %w", err)
	}
	return nil
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

func (w *wsConn) RemoteAddr() net.Addr {
	return w.conn.RemoteAddr()
}
