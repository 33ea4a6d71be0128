package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/require"

	"github.com/example/tablemate/internal/domain/user"
	"github.com/example/tablemate/internal/internaltypes"
)

type memUsers struct {
	mu     sync.Mutex
	byName map[string]user.User
}

func (m *memUsers) Create(_ context.Context, u user.User) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[u.Username]; ok {
		return user.User{}, ErrUserExists
	}
	u.ID = int64(len(m.byName) + 1)
	m.byName[u.Username] = u
	return u, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byName[username]
	if !ok {
		return user.User{}, internaltypes.ErrNotFound
	}
	return u, nil
}

func newStore() *Store {
	return NewStore(&memUsers{byName: map[string]user.User{}},
		securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32))
}

func TestCreateAndAuthenticate(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "  Host ", "correct horse")
	require.NoError(t, err)
	require.Equal(t, "host", u.Username)
	require.NotEqual(t, []byte("correct horse"), u.PasswordHash)

	got, err := s.Authenticate(ctx, "HOST", "correct horse")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = s.Authenticate(ctx, "host", "wrong password")
	require.ErrorIs(t, err, internaltypes.ErrUnauthorized)

	_, err = s.Authenticate(ctx, "nobody", "correct horse")
	require.ErrorIs(t, err, internaltypes.ErrUnauthorized)

	_, err = s.CreateUser(ctx, "host", "another password")
	require.ErrorIs(t, err, ErrUserExists)
}

func TestCreateUserValidates(t *testing.T) {
	s := newStore()
	_, err := s.CreateUser(context.Background(), " ", "long enough")
	require.ErrorIs(t, err, internaltypes.ErrInvalidInput)
	_, err = s.CreateUser(context.Background(), "host", "short")
	require.ErrorIs(t, err, internaltypes.ErrInvalidInput)
}

func TestRequireStaff(t *testing.T) {
	s := newStore()
	protected := s.RequireStaff(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := StaffFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(sess.Username))
	}))

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/staff/bistro/seat", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	login := httptest.NewRecorder()
	require.NoError(t, s.SetSession(login, httptest.NewRequest(http.MethodPost, "/api/staff/login", nil),
		user.User{ID: 7, Username: "host"}))
	cookies := login.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, cookieName, cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodPost, "/api/staff/bistro/seat", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "host", rec.Body.String())

	// a cookie signed with other keys is rejected
	other := newStore()
	req = httptest.NewRequest(http.MethodPost, "/api/staff/bistro/seat", nil)
	req.AddCookie(cookies[0])
	_, ok := other.GetSession(req)
	require.False(t, ok)
}

func TestClearSession(t *testing.T) {
	rec := httptest.NewRecorder()
	newStore().ClearSession(rec)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, -1, cookies[0].MaxAge)
}
