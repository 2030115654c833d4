package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/viper"

	"go.klb.dev/clipstash/internal/api"
	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/engine"
	"go.klb.dev/clipstash/internal/ipc"
	"go.klb.dev/clipstash/internal/message"
	"go.klb.dev/clipstash/internal/wire"
)

// request sends req to the running daemon. When no daemon is listening the
// request is answered by an engine working on the history file directly.
// The returned transport names which of the two answered.
func request(v *viper.Viper, req *message.Message) (resp *message.Message, transport string, err error) {
	sock := socketFrom(v)
	if ipc.IsRunning(sock) {
		resp, err = daemonRequest(sock, req)
		transport = fmt.Sprintf("ipc (%s)", sock)
	} else {
		slog.Debug("no daemon running, using history file", "socket", sock)
		resp, err = offlineRequest(v, req)
		transport = "file (" + pathsFrom(v).HistoryFile() + ")"
	}
	if err != nil {
		return nil, transport, err
	}
	if err := resp.Err(); err != nil {
		return nil, transport, err
	}
	return resp, transport, nil
}

func daemonRequest(sock string, req *message.Message) (*message.Message, error) {
	conn, err := ipc.Dial(sock)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", sock, err)
	}
	wc := wire.New(conn)
	defer wc.Close()
	return wc.RoundTrip(req)
}

func offlineRequest(v *viper.Viper, req *message.Message) (*message.Message, error) {
	// Only COPY touches the system clipboard, and what it writes has to
	// stay there after this process exits.
	backend := clip.NewHeadless()
	if req.Type == message.TypeCopy {
		var err error
		backend, err = clip.OpenDetached(v.GetString("backend"))
		if errors.Is(err, clip.ErrNotDetachable) {
			return nil, fmt.Errorf("%w; start `clipstash daemon` to copy entries", err)
		}
		if err != nil {
			return nil, err
		}
	}
	defer backend.Close()

	eng := engine.New(engine.Config{
		Backend:  backend,
		Paths:    pathsFrom(v),
		Capacity: v.GetInt("capacity"),
	})
	if r := eng.Load(); !r.OK {
		return nil, fmt.Errorf("%s", r.Message)
	}
	return api.New(eng).Dispatch(req), nil
}

// absPath resolves a user-supplied path against the CLI's working
// directory, since the daemon has its own.
func absPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	return abs, nil
}
