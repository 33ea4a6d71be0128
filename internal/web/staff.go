package web

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/example/tablemate/internal/auth"
	"github.com/example/tablemate/internal/restaurant"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) staffDisabled(w http.ResponseWriter) bool {
	if s.Staff != nil {
		return false
	}
	writeJSON(w, http.StatusServiceUnavailable, errorBody{"staff API needs DATABASE_URL"})
	return true
}

func (s *Server) staffOnly(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.staffDisabled(w) {
			return
		}
		s.Staff.RequireStaff(h).ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.staffDisabled(w) {
		return
	}
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := s.Staff.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.logger().Info("staff login rejected", zap.String("username", req.Username))
		s.writeError(w, r, err)
		return
	}
	if err := s.Staff.SetSession(w, r, u); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": u.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.staffDisabled(w) {
		return
	}
	s.Staff.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

func staffName(r *http.Request) string {
	sess, _ := auth.StaffFromContext(r.Context())
	return sess.Username
}

func (s *Server) handleSeat(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.restaurantOf(w, r)
	if !ok {
		return
	}
	seating, ok, err := rs.SeatNext(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.Metrics.Event(rs.ID(), "seated")
	s.logger().Info("staff seated party",
		zap.String("staff", staffName(r)),
		zap.String("restaurant", rs.ID()),
		zap.String("code", seating.Reservation.Code),
	)
	writeJSON(w, http.StatusOK, seating)
}

func (s *Server) handleServeWaitlist(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.restaurantOf(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		badRequest(w, "waitlist id must be a positive integer")
		return
	}
	e, err := rs.ServeWaitlist(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger().Info("staff removed waitlist entry",
		zap.String("staff", staffName(r)),
		zap.String("restaurant", rs.ID()),
		zap.Uint64("entry", id),
	)
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.restaurantOf(w, r)
	if !ok {
		return
	}
	s.cancel(w, r, rs)
}

// handleCancelByCode finds the restaurant from the code prefix.
func (s *Server) handleCancelByCode(w http.ResponseWriter, r *http.Request) {
	rs, err := s.Restaurants.ByCode(r.PathValue("code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.cancel(w, r, rs)
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request, rs *restaurant.Restaurant) {
	res, err := rs.Cancel(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Metrics.Event(rs.ID(), "cancelled")
	s.logger().Info("staff cancelled reservation",
		zap.String("staff", staffName(r)),
		zap.String("restaurant", rs.ID()),
		zap.String("code", res.Code),
	)
	writeJSON(w, http.StatusOK, res)
}
