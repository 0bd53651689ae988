// Package httpapi serves the command channel over HTTP so that a menu or
// popup running outside the process can list and clear selections.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chrisuehlinger/multiselect/session"
)

// Dispatcher answers command channel messages from any goroutine.
// *session.Session implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg session.Message) (session.Response, error)
}

// maxBody caps POST /messages bodies.
const maxBody = 64 << 10

type server struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewRouter builds the HTTP handler for d.
func NewRouter(d Dispatcher, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &server{dispatcher: d, logger: logger.With("component", "httpapi")}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthzHandler)
	r.Post("/messages", s.messageHandler)
	r.Get("/selections", s.listSelectionsHandler)
	r.Delete("/selections", s.clearSelectionsHandler)
	return r
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("command channel listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) messageHandler(w http.ResponseWriter, r *http.Request) {
	var msg session.Message
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, session.Response{Error: "invalid message: " + err.Error()})
		return
	}
	s.dispatch(w, r, msg)
}

func (s *server) listSelectionsHandler(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, session.Message{Type: session.MessageGetSelections})
}

func (s *server) clearSelectionsHandler(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, session.Message{Type: session.MessageClearAllSelections})
}

func (s *server) dispatch(w http.ResponseWriter, r *http.Request, msg session.Message) {
	resp, err := s.dispatcher.Dispatch(r.Context(), msg)
	if err != nil {
		s.logger.Warn("dispatch failed", "type", msg.Type, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, session.Response{Error: err.Error()})
		return
	}
	status := http.StatusOK
	if resp.Error != "" {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode JSON response", "error", err)
	}
}
