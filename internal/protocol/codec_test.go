package protocol

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"
)

func alice() UserInfo {
	return UserInfo{ID: 7, Username: "alice", Color: RGB{R: 200, G: 30, B: 30}}
}

func samplePayloads() []Payload {
	user := alice()
	return []Payload{
		TextPayload("hello there"),
		FilePayload("notes.txt", []byte{0x00, 0x01, 0xff}),
		ImagePayload([]byte{0x89, 0x50, 0x4e, 0x47}),
		UserConnectedPayload(),
		UserDisconnectedPayload(),
		UsernameChangedPayload("bob"),
		ColorChangedPayload(RGB{R: 1, G: 2, B: 3}),
		RecoverableErrorPayload("temporary glitch"),
		UnrecoverableErrorPayload("server is stopped"),
		LoginRequestPayload("alice", "secret"),
		LoginResponsePayload(&user),
		LoginResponsePayload(nil),
		RegisterRequestPayload("bob", "hunter2", RGB{R: 10, G: 20, B: 30}),
		RegisterResponsePayload(&user),
		HistoryRequestPayload(),
		HistoryResponsePayload([]HistoryEntry{
			{Text: "first", Author: user},
			{Text: "second", Author: AnonymousUser()},
		}),
	}
}

func TestCodec_RoundTripAllKinds(t *testing.T) {
	for _, payload := range samplePayloads() {
		env := NewEnvelope(payload, alice())

		var buf bytes.Buffer
		if err := Encode(&buf, env); err != nil {
			t.Fatalf("Encode(%s): %v", payload.Kind, err)
		}

		got, err := Decode(&buf)
		if err != nil {
			t.Fatalf("Decode(%s): %v", payload.Kind, err)
		}

		if !reflect.DeepEqual(got.Payload, env.Payload) {
			t.Errorf("%s payload: got %+v, want %+v", payload.Kind, got.Payload, env.Payload)
		}
		if !reflect.DeepEqual(got.Author, env.Author) {
			t.Errorf("%s author: got %+v, want %+v", payload.Kind, got.Author, env.Author)
		}
		if !got.Timestamp.Equal(env.Timestamp) {
			t.Errorf("%s timestamp: got %v, want %v", payload.Kind, got.Timestamp, env.Timestamp)
		}
	}
}

func TestDecode_MalformedBody(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x00, 0x00, 0x04})
	buf.Write([]byte("!!!!"))

	_, err := Decode(&buf)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("Decode of garbage body: err = %v, want ErrMalformed", err)
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	body := []byte(`{"payload":{"kind":"teleport"},"author":{"id":0,"username":"","color":{"r":0,"g":0,"b":0}},"timestamp":"2024-01-15T12:00:00Z"}`)

	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x00, 0x00, byte(len(body))})
	buf.Write(body)

	_, err := Decode(&buf)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("Decode of unknown kind: err = %v, want ErrMalformed", err)
	}
}

func TestDecode_TruncatedFrame(t *testing.T) {
	env := NewEnvelope(TextPayload("hello"), alice())

	var buf bytes.Buffer
	if err := Encode(&buf, env); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Peer closes mid-frame: drop the tail of the body.
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-3])

	_, err := Decode(truncated)
	if err == nil {
		t.Fatal("Decode of truncated frame succeeded, want error")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("err = %v, want io.ErrUnexpectedEOF in chain", err)
	}
	if errors.Is(err, ErrMalformed) {
		t.Error("truncated frame reported as ErrMalformed, want transport error")
	}
}

func TestDecode_EmptyStream(t *testing.T) {
	_, err := Decode(bytes.NewReader(nil))
	if !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want io.EOF in chain", err)
	}
}

func TestEncode_WriterFailure(t *testing.T) {
	env := NewEnvelope(TextPayload("hello"), alice())

	err := Encode(failingWriter{}, env)
	if err == nil {
		t.Fatal("Encode to failing writer succeeded, want error")
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, io.ErrClosedPipe
}
