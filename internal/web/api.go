package web

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/example/tablemate/internal/conversation"
	"github.com/example/tablemate/internal/dietary"
	"github.com/example/tablemate/internal/restaurant"
	"github.com/example/tablemate/internal/tables"
	"github.com/example/tablemate/internal/waitlist"
)

type restaurantSummary struct {
	restaurant.Info
	Hours           string `json:"hours"`
	MaxPartySize    int    `json:"max_party_size"`
	AvailableTables int    `json:"available_tables"`
	WaitlistLength  int    `json:"waitlist_length"`
}

func (s *Server) handleRestaurants(w http.ResponseWriter, r *http.Request) {
	out := []restaurantSummary{}
	for _, rs := range s.Restaurants.All() {
		st := rs.Stats()
		out = append(out, restaurantSummary{
			Info:            rs.Info(),
			Hours:           rs.Info().Hours(),
			MaxPartySize:    rs.MaxPartySize(),
			AvailableTables: st.AvailableTables,
			WaitlistLength:  st.WaitlistLength,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	out := []restaurant.Stats{}
	for _, rs := range s.Restaurants.All() {
		out = append(out, rs.Stats())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.restaurantOf(w, r)
	if !ok {
		return
	}
	ts := rs.Tables()
	if ts == nil {
		ts = []tables.Table{}
	}
	writeJSON(w, http.StatusOK, ts)
}

func (s *Server) handleWaitlist(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.restaurantOf(w, r)
	if !ok {
		return
	}
	ps := rs.Waitlist()
	if ps == nil {
		ps = []waitlist.Position{}
	}
	writeJSON(w, http.StatusOK, ps)
}

type menuResponse struct {
	Restaurant string                `json:"restaurant"`
	Dietary    []dietary.Restriction `json:"dietary"`
	Items      []dietary.Item        `json:"items"`
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.restaurantOf(w, r)
	if !ok {
		return
	}
	want, err := dietary.ParseList(r.URL.Query().Get("dietary"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	items := rs.Menu(want)
	if items == nil {
		items = []dietary.Item{}
	}
	if want == nil {
		want = []dietary.Restriction{}
	}
	writeJSON(w, http.StatusOK, menuResponse{Restaurant: rs.ID(), Dietary: want, Items: items})
}

type chatRequest struct {
	Message    string `json:"message"`
	Restaurant string `json:"restaurant"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(w, "message is required")
		return
	}
	if strings.TrimSpace(req.Restaurant) == "" {
		badRequest(w, "restaurant is required")
		return
	}
	rs, err := s.Restaurants.Get(req.Restaurant)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, err := s.Sessions.Load(w, r, rs.ID())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, next, err := s.Engine.Handle(r.Context(), sess, conversation.Turn{RestaurantID: rs.ID(), Message: req.Message})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Metrics.observeTurn(rs.ID(), resp)

	// a committed booking stands even if the session could not be kept
	if err := s.Sessions.Save(w, r, next); err != nil {
		s.logger().Error("save chat session", zap.String("restaurant", rs.ID()), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, resp)
}
