// Package api serves the daemon's local API. One listener carries two
// protocols: HTTP/1 requests are routed to a chi router, anything else is
// treated as the newline-delimited JSON protocol of package message.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/soheilhy/cmux"
	"golang.org/x/sync/errgroup"

	"go.klb.dev/clipstash/internal/engine"
	"go.klb.dev/clipstash/internal/history"
)

const shutdownTimeout = 5 * time.Second

// Service is the part of the engine the API exposes.
type Service interface {
	Snapshot() []history.Entry
	Copy(id string) engine.Result
	Delete(id string) engine.Result
	Clear() engine.Result
	Export(path string) engine.Result
	Import(path string, mode engine.ImportMode) engine.Result
	Status() engine.Status
}

// Server answers API requests against a Service.
type Server struct {
	svc    Service
	router http.Handler
}

// New returns a Server for svc.
func New(svc Service) *Server {
	s := &Server{svc: svc}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP side of the API.
func (s *Server) Handler() http.Handler { return s.router }

// Serve accepts connections on ln until ctx is done, then closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	m := cmux.New(ln)
	httpL := m.Match(cmux.HTTP1Fast())
	rawL := m.Match(cmux.Any())

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(httpL); !isClosed(err) {
			return err
		}
		return nil
	})
	g.Go(func() error { return s.serveNDJSON(ctx, rawL) })
	g.Go(func() error {
		if err := m.Serve(); !isClosed(err) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = ln.Close()
		return nil
	})

	slog.Info("api listening", "addr", ln.Addr().String())
	err := g.Wait()
	slog.Info("api stopped")
	return err
}

func isClosed(err error) bool {
	return err == nil ||
		errors.Is(err, http.ErrServerClosed) ||
		errors.Is(err, cmux.ErrListenerClosed) ||
		errors.Is(err, net.ErrClosed)
}
