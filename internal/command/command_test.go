package command

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/relaywire/chat-relay/internal/protocol"
)

func TestParse_Commands(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantKind protocol.Kind
		wantQuit bool
	}{
		{"quit", ".quit", protocol.KindUserDisconnected, true},
		{"history", ".history", protocol.KindHistoryRequest, false},
		{"username", ".username Alice", protocol.KindUsernameChanged, false},
		{"color", ".color 10 20 30", protocol.KindColorChanged, false},
		{"login", ".login alice secret", protocol.KindLoginRequest, false},
		{"register", ".register bob pw pw 1 2 3", protocol.KindRegisterRequest, false},
		{"plain text", "hello everyone", protocol.KindText, false},
		{"dot without command", ".notacommand stays text", protocol.KindText, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.line, err)
			}
			if cmd.Payload.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", cmd.Payload.Kind, tt.wantKind)
			}
			if cmd.Quit != tt.wantQuit {
				t.Errorf("Quit = %v, want %v", cmd.Quit, tt.wantQuit)
			}
		})
	}
}

func TestParse_UsernameKeepsSpaces(t *testing.T) {
	cmd, err := Parse(".username Alice the Great")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Payload.Username != "Alice the Great" {
		t.Errorf("Username = %q, want %q", cmd.Payload.Username, "Alice the Great")
	}
}

func TestParse_ColorValues(t *testing.T) {
	cmd, err := Parse(".color 255 0 128")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := protocol.RGB{R: 255, G: 0, B: 128}
	if *cmd.Payload.Color != want {
		t.Errorf("Color = %+v, want %+v", *cmd.Payload.Color, want)
	}
}

func TestParse_ColorOutOfRange(t *testing.T) {
	for _, line := range []string{
		".color 256 0 0",
		".color 0 -1 0",
		".color 0 0 abc",
	} {
		if _, err := Parse(line); !errors.Is(err, ErrColorOutOfRange) {
			t.Errorf("Parse(%q): err = %v, want ErrColorOutOfRange", line, err)
		}
	}
}

func TestParse_MissingArguments(t *testing.T) {
	for _, line := range []string{
		".username",
		".color 1 2",
		".login alice",
		".register bob pw pw 1 2",
		".file",
		".image",
	} {
		if _, err := Parse(line); !errors.Is(err, ErrMissingArgument) {
			t.Errorf("Parse(%q): err = %v, want ErrMissingArgument", line, err)
		}
	}
}

func TestParse_RegisterPasswordMismatch(t *testing.T) {
	_, err := Parse(".register bob pw other 1 2 3")
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("err = %v, want ErrPasswordMismatch", err)
	}
}

func TestParse_RegisterCredentials(t *testing.T) {
	cmd, err := Parse(".register bob hunter2 hunter2 9 8 7")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := cmd.Payload
	if p.Username != "bob" || p.Password != "hunter2" {
		t.Errorf("credentials = %q/%q, want bob/hunter2", p.Username, p.Password)
	}
	if want := (protocol.RGB{R: 9, G: 8, B: 7}); *p.Color != want {
		t.Errorf("Color = %+v, want %+v", *p.Color, want)
	}
}

func TestParse_FileReadsContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	content := []byte("file body")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	cmd, err := Parse(".file " + path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Payload.FileName != "hello.txt" {
		t.Errorf("FileName = %q, want hello.txt", cmd.Payload.FileName)
	}
	if !bytes.Equal(cmd.Payload.Data, content) {
		t.Errorf("Data = %q, want %q", cmd.Payload.Data, content)
	}
}

func TestParse_FileMissing(t *testing.T) {
	if _, err := Parse(".file /does/not/exist"); err == nil {
		t.Error("Parse of missing file succeeded")
	}
}
