package protocol

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Errors
var (
	// ErrMalformed marks a frame whose body could not be deserialized into
	// a known envelope.
	ErrMalformed = errors.New("malformed frame")

	// ErrDirection marks a server-to-client-only kind received from a client.
	ErrDirection = errors.New("response kind received from client")
)

// lengthSize is the size of the big-endian frame length prefix.
const lengthSize = 4

// Marshal serializes an envelope into the frame body bytes (no length prefix).
func Marshal(env Envelope) ([]byte, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return body, nil
}

// Unmarshal deserializes frame body bytes into an envelope. Undecodable
// bytes and unknown payload kinds fail with ErrMalformed.
func Unmarshal(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !env.Payload.Kind.Known() {
		return Envelope{}, fmt.Errorf("%w: unknown kind %q", ErrMalformed, env.Payload.Kind)
	}
	return env, nil
}

// Encode writes one envelope to w as a length-prefixed frame.
func Encode(w io.Writer, env Envelope) error {
	body, err := Marshal(env)
	if err != nil {
		return err
	}

	var prefix [lengthSize]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(body)))

	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	return nil
}

// Decode reads exactly one length-prefixed frame from r and deserializes it.
// I/O failures (including a peer closing mid-frame) surface as wrapped read
// errors; an undecodable body surfaces as ErrMalformed.
func Decode(r io.Reader) (Envelope, error) {
	var prefix [lengthSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return Envelope{}, fmt.Errorf("read frame length: %w", err)
	}

	n := binary.BigEndian.Uint32(prefix[:])
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return Envelope{}, fmt.Errorf("read frame body: %w", err)
	}

	return Unmarshal(body)
}
