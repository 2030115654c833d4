package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"go.klb.dev/clipstash/internal/engine"
	"go.klb.dev/clipstash/internal/message"
	"go.klb.dev/clipstash/internal/wire"
)

// idleTimeout bounds how long an NDJSON connection may sit between requests.
const idleTimeout = 30 * time.Second

func (s *Server) serveNDJSON(ctx context.Context, ln net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if isClosed(err) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Idle connections would otherwise hold shutdown for idleTimeout.
			stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
			defer stop()
			s.handleConn(conn)
		}()
	}
}

// handleConn answers requests on conn, one reply per request, until the
// client hangs up.
func (s *Server) handleConn(conn net.Conn) {
	wc := wire.New(conn)
	defer wc.Close()

	for {
		wc.SetReadDeadline(idleTimeout)
		msg, err := wc.ReadMsg()
		if err != nil {
			if !errors.Is(err, io.EOF) && !isClosed(err) {
				slog.Debug("ipc: read failed", "err", err)
			}
			return
		}
		wc.SetReadDeadline(0)

		if err := wc.WriteMsg(s.Dispatch(msg)); err != nil {
			slog.Debug("ipc: write failed", "err", err)
			return
		}
	}
}

// Dispatch answers a single protocol request.
func (s *Server) Dispatch(msg *message.Message) *message.Message {
	slog.Debug("ipc: request", "type", msg.Type, "id", msg.ID)

	switch msg.Type {
	case message.TypeList:
		return &message.Message{
			Type:  message.TypeResult,
			OK:    true,
			Items: message.NewItems(s.svc.Snapshot()),
		}

	case message.TypeCopy:
		return fromResult(s.svc.Copy(s.entryID(msg.ID)))

	case message.TypeDelete:
		return fromResult(s.svc.Delete(s.entryID(msg.ID)))

	case message.TypeClear:
		return fromResult(s.svc.Clear())

	case message.TypeExport:
		return fromResult(s.svc.Export(msg.Path))

	case message.TypeImport:
		mode, err := engine.ParseImportMode(msg.Mode)
		if err != nil {
			return message.Errorf("%v", err)
		}
		return fromResult(s.svc.Import(msg.Path, mode))

	case message.TypeStatus:
		raw, err := json.Marshal(s.svc.Status())
		if err != nil {
			return message.Errorf("encode status: %v", err)
		}
		return &message.Message{Type: message.TypeResult, OK: true, Status: raw}

	default:
		return message.Errorf("unknown request type %q", msg.Type)
	}
}

// entryID maps a request key to an entry ID. The key is either the ID
// itself or a 1-based position in the history, which stays meaningful when
// IDs do not (a CLI working on the history file gets fresh IDs on every run).
func (s *Server) entryID(key string) string {
	n, err := strconv.Atoi(key)
	if err != nil || n < 1 {
		return key
	}
	snap := s.svc.Snapshot()
	if n > len(snap) {
		return key
	}
	return snap[n-1].ID
}

func fromResult(r engine.Result) *message.Message {
	if !r.OK {
		return &message.Message{Type: message.TypeError, Error: r.Message}
	}
	m := &message.Message{Type: message.TypeResult, OK: true, Message: r.Message}
	if r.Summary != nil {
		m.Summary, _ = json.Marshal(r.Summary)
	}
	return m
}
