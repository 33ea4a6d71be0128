// Package sessions keeps each guest's conversation state between HTTP requests.
package sessions

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/example/tablemate/internal/conversation"
)

const chatCookiePrefix = "tablemate_chat_"

var cookieSafe = regexp.MustCompile(`[^a-z0-9-]`)

// Store loads and saves the session a guest holds with one restaurant. Load never fails
// for a guest without state: it returns conversation.NewSession.
type Store interface {
	Load(w http.ResponseWriter, r *http.Request, restaurantID string) (conversation.Session, error)
	Save(w http.ResponseWriter, r *http.Request, sess conversation.Session) error
}

// Detached reports whether st saves without touching the response, so a session can
// still be saved once the connection is hijacked, as by a websocket.
func Detached(st Store) bool {
	_, ok := st.(interface{ detached() })
	return ok
}

// CookieStore keeps the whole session in a signed, encrypted cookie per restaurant.
// Each save refreshes the idle timeout.
type CookieStore struct {
	sc   *securecookie.SecureCookie
	idle time.Duration
}

func NewCookieStore(hashKey, blockKey []byte, idle time.Duration) *CookieStore {
	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(int(idle.Seconds()))
	return &CookieStore{sc: sc, idle: idle}
}

func chatCookie(restaurantID string) string {
	return chatCookiePrefix + cookieSafe.ReplaceAllString(restaurantID, "_")
}

func (s *CookieStore) Load(_ http.ResponseWriter, r *http.Request, restaurantID string) (conversation.Session, error) {
	c, err := r.Cookie(chatCookie(restaurantID))
	if err != nil {
		return conversation.NewSession(restaurantID), nil
	}
	var sess conversation.Session
	// expired or tampered cookies start over
	if err := s.sc.Decode(c.Name, c.Value, &sess); err != nil || sess.RestaurantID != restaurantID {
		return conversation.NewSession(restaurantID), nil
	}
	return sess, nil
}

func (s *CookieStore) Save(w http.ResponseWriter, r *http.Request, sess conversation.Session) error {
	name := chatCookie(sess.RestaurantID)
	encoded, err := s.sc.Encode(name, sess)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(s.idle.Seconds()),
	})
	return nil
}
