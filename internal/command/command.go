// Package command translates client input lines into protocol payloads.
//
// Recognized commands:
//
//	.file <path>                                  send a file
//	.image <path>                                 send an image
//	.username <name>                              change display name
//	.color <r> <g> <b>                            change username color (0-255 each)
//	.login <user> <pass>                          log in
//	.register <user> <pass> <repeat> <r> <g> <b>  create an account
//	.history                                      fetch recent messages
//	.quit                                         disconnect
//
// Any other line is sent as a text message.
package command

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/relaywire/chat-relay/internal/protocol"
)

// Errors
var (
	ErrMissingArgument  = errors.New("missing argument")
	ErrColorOutOfRange  = errors.New("color components must be integers between 0 and 255")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Command is the result of translating one input line.
type Command struct {
	Payload protocol.Payload

	// Quit marks the .quit command: the payload is still sent, then the
	// local session ends.
	Quit bool
}

// Parse translates one input line. File and image commands read the named
// file from disk.
func Parse(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	word, rest, _ := strings.Cut(trimmed, " ")
	rest = strings.TrimSpace(rest)

	switch word {
	case ".quit":
		return Command{Payload: protocol.UserDisconnectedPayload(), Quit: true}, nil

	case ".history":
		return Command{Payload: protocol.HistoryRequestPayload()}, nil

	case ".file":
		if rest == "" {
			return Command{}, fmt.Errorf("%w: .file <path>", ErrMissingArgument)
		}
		data, err := os.ReadFile(rest)
		if err != nil {
			return Command{}, fmt.Errorf("read file: %w", err)
		}
		return Command{Payload: protocol.FilePayload(filepath.Base(rest), data)}, nil

	case ".image":
		if rest == "" {
			return Command{}, fmt.Errorf("%w: .image <path>", ErrMissingArgument)
		}
		data, err := os.ReadFile(rest)
		if err != nil {
			return Command{}, fmt.Errorf("read image: %w", err)
		}
		return Command{Payload: protocol.ImagePayload(data)}, nil

	case ".username":
		if rest == "" {
			return Command{}, fmt.Errorf("%w: .username <name>", ErrMissingArgument)
		}
		return Command{Payload: protocol.UsernameChangedPayload(rest)}, nil

	case ".color":
		fields := strings.Fields(rest)
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("%w: .color <r> <g> <b>", ErrMissingArgument)
		}
		rgb, err := parseRGB(fields[0], fields[1], fields[2])
		if err != nil {
			return Command{}, err
		}
		return Command{Payload: protocol.ColorChangedPayload(rgb)}, nil

	case ".login":
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("%w: .login <user> <pass>", ErrMissingArgument)
		}
		return Command{Payload: protocol.LoginRequestPayload(fields[0], fields[1])}, nil

	case ".register":
		fields := strings.Fields(rest)
		if len(fields) != 6 {
			return Command{}, fmt.Errorf("%w: .register <user> <pass> <repeat-pass> <r> <g> <b>", ErrMissingArgument)
		}
		if fields[1] != fields[2] {
			return Command{}, ErrPasswordMismatch
		}
		rgb, err := parseRGB(fields[3], fields[4], fields[5])
		if err != nil {
			return Command{}, err
		}
		return Command{Payload: protocol.RegisterRequestPayload(fields[0], fields[1], rgb)}, nil

	default:
		return Command{Payload: protocol.TextPayload(line)}, nil
	}
}

func parseRGB(r, g, b string) (protocol.RGB, error) {
	var out [3]uint8
	for i, s := range []string{r, g, b} {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 || v > 255 {
			return protocol.RGB{}, ErrColorOutOfRange
		}
		out[i] = uint8(v)
	}
	return protocol.RGB{R: out[0], G: out[1], B: out[2]}, nil
}
