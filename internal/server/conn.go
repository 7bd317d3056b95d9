package server

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/relaywire/chat-relay/internal/protocol"
)

// FrameConn is one client connection able to exchange envelopes. ReadEnvelope
// is called only by the owning session's read loop; WriteEnvelope is safe for
// concurrent use and serializes frames internally.
type FrameConn interface {
	ReadEnvelope() (protocol.Envelope, error)
	WriteEnvelope(protocol.Envelope) error
	Close() error
	RemoteAddr() net.Addr
}

// tcpConn adapts a raw TCP connection to FrameConn using the length-prefixed
// frame codec.
type tcpConn struct {
	conn   net.Conn
	reader *bufio.Reader

	// writeMu arbitrates the outbound path between the session's direct
	// replies and the dispatcher's fan-out deliveries.
	writeMu      sync.Mutex
	writeTimeout time.Duration
}

func newTCPConn(c net.Conn, writeTimeout time.Duration) *tcpConn {
	return &tcpConn{
		conn:         c,
		reader:       bufio.NewReader(c),
		writeTimeout: writeTimeout,
	}
}

func (t *tcpConn) ReadEnvelope() (protocol.Envelope, error) {
	return protocol.Decode(t.reader)
}

func (t *tcpConn) WriteEnvelope(env protocol.Envelope) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.writeTimeout > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}
	return protocol.Encode(t.conn, env)
}

func (t *tcpConn) Close() error {
	return t.conn.Close()
}

func (t *tcpConn) RemoteAddr() net.Addr {
	return t.conn.RemoteAddr()
}
