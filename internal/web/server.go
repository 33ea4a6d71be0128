// Package web serves the TableMate JSON API, the websocket chat and the staff endpoints.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/tablemate/internal/auth"
	"github.com/example/tablemate/internal/conversation"
	"github.com/example/tablemate/internal/internaltypes"
	"github.com/example/tablemate/internal/restaurant"
	"github.com/example/tablemate/internal/sessions"
)

const maxBody = 16 << 10

type Server struct {
	Restaurants *restaurant.Directory
	Engine      *conversation.Engine
	Sessions    sessions.Store
	// Staff is nil when no database is configured; the staff API then answers 503.
	Staff   *auth.Store
	Metrics *Metrics
	Log     *zap.Logger

	// AllowedOrigins lists websocket origins besides the server's own; "*" allows any.
	AllowedOrigins []string
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}

	mux.HandleFunc("GET /api/restaurants", s.handleRestaurants)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/tables/{restaurant}", s.handleTables)
	mux.HandleFunc("GET /api/waitlist/{restaurant}", s.handleWaitlist)
	mux.HandleFunc("GET /api/menu/{restaurant}", s.handleMenu)

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /ws/chat", s.handleChatSocket)

	mux.HandleFunc("POST /api/staff/login", s.handleLogin)
	mux.HandleFunc("POST /api/staff/logout", s.handleLogout)
	mux.Handle("POST /api/staff/{restaurant}/seat", s.staffOnly(s.handleSeat))
	mux.Handle("DELETE /api/staff/{restaurant}/waitlist/{id}", s.staffOnly(s.handleServeWaitlist))
	mux.Handle("DELETE /api/staff/{restaurant}/reservations/{code}", s.staffOnly(s.handleCancel))
	mux.Handle("DELETE /api/staff/reservations/{code}", s.staffOnly(s.handleCancelByCode))

	return s.logRequests(mux)
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes. Unexpected errors are logged and
// reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, internaltypes.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{err.Error()})
	case errors.Is(err, internaltypes.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{err.Error()})
	case errors.Is(err, internaltypes.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody{err.Error()})
	default:
		s.logger().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{"internal error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// restaurantOf resolves the {restaurant} path value, answering 404 itself on failure.
func (s *Server) restaurantOf(w http.ResponseWriter, r *http.Request) (*restaurant.Restaurant, bool) {
	rs, err := s.Restaurants.Get(r.PathValue("restaurant"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return rs, true
}

// Start serves h until ctx is cancelled, then drains in-flight requests.
func Start(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
