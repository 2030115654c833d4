package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"go.klb.dev/clipstash/internal/engine"
	"go.klb.dev/clipstash/internal/history"
	"go.klb.dev/clipstash/internal/message"
	"go.klb.dev/clipstash/internal/persist"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.svc.Status())
	})

	r.Route("/entries", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, message.NewItems(s.svc.Snapshot()))
		})
		r.Delete("/", func(w http.ResponseWriter, _ *http.Request) {
			writeResult(w, s.svc.Clear())
		})
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeResult(w, s.svc.Delete(s.entryID(chi.URLParam(r, "id"))))
		})
		r.Post("/{id}/copy", func(w http.ResponseWriter, r *http.Request) {
			writeResult(w, s.svc.Copy(s.entryID(chi.URLParam(r, "id"))))
		})
	})

	r.Post("/export", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeResult(w, s.svc.Export(req.Path))
	})

	r.Post("/import", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Path string `json:"path"`
			Mode string `json:"mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		mode, err := engine.ParseImportMode(req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeResult(w, s.svc.Import(req.Path, mode))
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeResult(w http.ResponseWriter, r engine.Result) {
	writeJSON(w, statusFor(r), r)
}

func statusFor(r engine.Result) int {
	if r.OK {
		return http.StatusOK
	}
	var de *persist.DecodeError
	switch {
	case errors.Is(r.Err, history.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(r.Err, engine.ErrNoSelection):
		return http.StatusBadRequest
	case errors.As(r.Err, &de):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
