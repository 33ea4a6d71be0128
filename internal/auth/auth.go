package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/tablemate/internal/domain/user"
	"github.com/example/tablemate/internal/internaltypes"
)

const (
	cookieName     = "tablemate_staff"
	sessionTTL     = 12 * time.Hour
	minPasswordLen = 8
)

var ErrUserExists = errors.New("staff user already exists")

// Users stores staff accounts.
type Users interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

type Store struct {
	sc    *securecookie.SecureCookie
	users Users
}

type ctxKey string

const sessionKey ctxKey = "staff"

func NewStore(users Users, hashKey, blockKey []byte) *Store {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(sessionTTL.Seconds()))
	return &Store{sc: sc, users: users}
}

func HashPassword(pw string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
}

func CheckPassword(hash []byte, pw string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(pw)) == nil
}

func (s *Store) CreateUser(ctx context.Context, username, password string) (user.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return user.User{}, fmt.Errorf("%w: username required", internaltypes.ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return user.User{}, fmt.Errorf("%w: password must be at least %d characters", internaltypes.ErrInvalidInput, minPasswordLen)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return user.User{}, err
	}
	return s.users.Create(ctx, user.User{Username: username, PasswordHash: hash})
}

// Authenticate returns the account for username when password matches. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *Store) Authenticate(ctx context.Context, username, password string) (user.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if errors.Is(err, internaltypes.ErrNotFound) {
		return user.User{}, fmt.Errorf("invalid credentials: %w", internaltypes.ErrUnauthorized)
	}
	if err != nil {
		return user.User{}, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return user.User{}, fmt.Errorf("invalid credentials: %w", internaltypes.ErrUnauthorized)
	}
	return u, nil
}

type Session struct {
	UserID   int64
	Username string
}

func (s *Store) SetSession(w http.ResponseWriter, r *http.Request, u user.User) error {
	encoded, err := s.sc.Encode(cookieName, Session{UserID: u.ID, Username: u.Username})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(sessionTTL.Seconds()),
	})
	return nil
}

func (s *Store) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *Store) GetSession(r *http.Request) (Session, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return Session{}, false
	}
	var sess Session
	if err := s.sc.Decode(cookieName, c.Value, &sess); err != nil || sess.UserID <= 0 {
		return Session{}, false
	}
	return sess, true
}

// RequireStaff rejects requests without a valid staff cookie with 401.
func (s *Store) RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.GetSession(r)
		if !ok {
			http.Error(w, `{"error":"staff login required"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func StaffFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey).(Session)
	return sess, ok
}
