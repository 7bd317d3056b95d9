package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/relaywire/chat-relay/internal/command"
	"github.com/relaywire/chat-relay/internal/protocol"
	"github.com/relaywire/chat-relay/internal/version"
)

func main() {
	addr := flag.String("addr", "localhost:11111", "server address (host:port)")
	saveDir := flag.String("save-dir", ".", "directory for received files and images")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("starting chat client", "version", version.Version, "server", *addr)

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	user := protocol.AnonymousUser()

	// Announce arrival and ask for recent history right away.
	for _, p := range []protocol.Payload{
		protocol.UserConnectedPayload(),
		protocol.HistoryRequestPayload(),
	} {
		if err := protocol.Encode(conn, protocol.NewEnvelope(p, user)); err != nil {
			logger.Error("failed to send", "error", err)
			os.Exit(1)
		}
	}

	// Local user info is updated by login/register responses so outgoing
	// envelopes carry it; the server re-stamps it anyway.
	userCh := make(chan protocol.UserInfo, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		receiveLoop(conn, *saveDir, userCh, logger)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		select {
		case u := <-userCh:
			user = u
		default:
		}

		line := scanner.Text()
		if line == "" {
			continue
		}

		cmd, err := command.Parse(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}

		if err := protocol.Encode(conn, protocol.NewEnvelope(cmd.Payload, user)); err != nil {
			logger.Error("failed to send", "error", err)
			break
		}
		if cmd.Quit {
			break
		}
	}

	conn.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	logger.Info("client stopped")
}

// receiveLoop decodes inbound envelopes and renders them until the
// connection closes.
func receiveLoop(conn net.Conn, saveDir string, userCh chan<- protocol.UserInfo, logger *slog.Logger) {
	reader := bufio.NewReader(conn)
	for {
		env, err := protocol.Decode(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.Error("connection lost", "error", err)
			}
			return
		}
		render(env, saveDir, userCh, logger)
	}
}

func render(env protocol.Envelope, saveDir string, userCh chan<- protocol.UserInfo, logger *slog.Logger) {
	p := env.Payload
	name := env.Author.Username

	switch p.Kind {
	case protocol.KindText:
		fmt.Printf("%s: %s\n", name, p.Text)

	case protocol.KindFile:
		path, err := saveBlob(saveDir, "files", p.FileName, p.Data)
		if err != nil {
			logger.Error("failed to save file", "error", err)
			return
		}
		fmt.Printf("%s sent a file, saved to %s\n", name, path)

	case protocol.KindImage:
		stamp := env.Timestamp.Format("20060102-150405.000000")
		path, err := saveBlob(saveDir, "images", stamp+".png", p.Data)
		if err != nil {
			logger.Error("failed to save image", "error", err)
			return
		}
		fmt.Printf("%s sent an image, saved to %s\n", name, path)

	case protocol.KindUserConnected:
		fmt.Printf("%s connected\n", name)

	case protocol.KindUserDisconnected:
		fmt.Printf("%s disconnected\n", name)

	case protocol.KindUsernameChanged:
		fmt.Printf("%s is now known as %s\n", p.Username, name)

	case protocol.KindColorChanged:
		fmt.Printf("%s changed color\n", name)

	case protocol.KindLoginResponse:
		if p.User == nil {
			fmt.Println("login failed")
			return
		}
		fmt.Printf("logged in as %s\n", p.User.Username)
		sendUser(userCh, *p.User)

	case protocol.KindRegisterResponse:
		if p.User == nil {
			fmt.Println("registration failed")
			return
		}
		fmt.Printf("registered as %s\n", p.User.Username)
		sendUser(userCh, *p.User)

	case protocol.KindHistoryResponse:
		for _, entry := range p.History {
			fmt.Printf("%s: %s\n", entry.Author.Username, entry.Text)
		}

	case protocol.KindRecoverableError:
		fmt.Fprintln(os.Stderr, "server:", p.Text)

	case protocol.KindUnrecoverableError:
		fmt.Fprintln(os.Stderr, "server:", p.Text)
		os.Exit(1)
	}
}

func sendUser(userCh chan<- protocol.UserInfo, u protocol.UserInfo) {
	select {
	case userCh <- u:
	default:
	}
}

// saveBlob writes data under saveDir/subdir, keeping only the base of the
// advertised name so a peer cannot pick the destination path.
func saveBlob(saveDir, subdir, name string, data []byte) (string, error) {
	dir := filepath.Join(saveDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
