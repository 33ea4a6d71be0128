package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/example/tablemate/internal/conversation"
	"github.com/example/tablemate/internal/sessions"
)

const writeWait = 10 * time.Second

func (s *Server) upgrader() *websocket.Upgrader {
	u := &websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096}
	if len(s.AllowedOrigins) > 0 {
		u.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range s.AllowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		}
	}
	return u
}

// detachedWriter stands in for the hijacked response when saving to a store that keeps
// sessions server-side.
type detachedWriter http.Header

func (d detachedWriter) Header() http.Header       { return http.Header(d) }
func (detachedWriter) Write(b []byte) (int, error) { return len(b), nil }
func (detachedWriter) WriteHeader(int)             {}

// handleChatSocket runs a chat over one websocket: each inbound text frame is a guest
// message and gets exactly one Response frame back. The conversation starts from the
// guest's stored session. A server-side store gets every turn saved; with cookie sessions
// the conversation lives with the connection.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	rs, err := s.Restaurants.Get(r.URL.Query().Get("restaurant"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.Sessions.Load(w, r, rs.ID())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// Load may have issued the guest cookie
	hdr := http.Header{"Set-Cookie": w.Header().Values("Set-Cookie")}
	conn, err := s.upgrader().Upgrade(w, r, hdr)
	if err != nil {
		// Upgrade has already answered the client
		s.logger().Info("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBody)

	log := s.logger().With(zap.String("restaurant", rs.ID()), zap.String("remote", r.RemoteAddr))
	persist := sessions.Detached(s.Sessions)
	log.Debug("chat socket opened")
	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("chat socket closed", zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage || strings.TrimSpace(string(msg)) == "" {
			continue
		}

		var out any
		resp, next, err := s.Engine.Handle(r.Context(), sess, conversation.Turn{RestaurantID: rs.ID(), Message: string(msg)})
		if err != nil {
			log.Error("chat turn failed", zap.Error(err))
			out = errorBody{"internal error"}
		} else {
			sess = next
			s.Metrics.observeTurn(rs.ID(), resp)
			out = resp
			if persist {
				if err := s.Sessions.Save(detachedWriter{}, r, sess); err != nil {
					log.Error("save chat session", zap.Error(err))
				}
			}
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(out); err != nil {
			log.Info("chat socket write failed", zap.Error(err))
			return
		}
	}
}
