package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memotag/memotag-server/internal/middleware"
	"github.com/memotag/memotag-server/internal/service"
	"github.com/memotag/memotag-server/internal/session"
)

type brokenStore struct{}

func (brokenStore) Create(ctx context.Context, token string, payload session.Payload, ttl time.Duration) error {
	return errors.New("store down")
}

func (brokenStore) Get(ctx context.Context, token string) (session.Payload, error) {
	return nil, errors.New("store down")
}

func (brokenStore) Extend(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	return false, errors.New("store down")
}

func (brokenStore) Delete(ctx context.Context, token string) error {
	return errors.New("store down")
}

func newAuthRouter(store session.Store) http.Handler {
	mgr := session.NewManager(store, time.Hour)
	authService := service.NewAuthService("", "1234", mgr)
	sessionMW := middleware.NewSessionMiddleware(mgr)
	h := NewAuthHandler(authService, sessionMW, middleware.NewLoginRateLimiter(), 3600, false)
	return h.Routes()
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("correct password sets cookie", func(t *testing.T) {
		router := newAuthRouter(session.NewMemoryStore())

		req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"password":"1234"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":true`)

		cookie := sessionCookie(t, rec)
		require.NotNil(t, cookie)
		assert.NotEmpty(t, cookie.Value)
		assert.True(t, cookie.HttpOnly)
	})

	t.Run("wrong password is 401 without cookie", func(t *testing.T) {
		router := newAuthRouter(session.NewMemoryStore())

		req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"password":"nope"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid password")
		assert.Nil(t, sessionCookie(t, rec))
	})

	t.Run("store failure is 503, not a cookie", func(t *testing.T) {
		router := newAuthRouter(brokenStore{})

		req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"password":"1234"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Nil(t, sessionCookie(t, rec))
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		router := newAuthRouter(session.NewMemoryStore())

		req := httptest.NewRequest("POST", "/login", strings.NewReader("not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("clears cookie even without a session", func(t *testing.T) {
		router := newAuthRouter(session.NewMemoryStore())

		req := httptest.NewRequest("POST", "/logout", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		cookie := sessionCookie(t, rec)
		require.NotNil(t, cookie)
		assert.Equal(t, -1, cookie.MaxAge)
	})

	t.Run("succeeds when store is down", func(t *testing.T) {
		router := newAuthRouter(brokenStore{})

		req := httptest.NewRequest("POST", "/logout", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "sometoken"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAuthHandler_Session(t *testing.T) {
	store := session.NewMemoryStore()
	router := newAuthRouter(store)

	login := httptest.NewRequest("POST", "/login", strings.NewReader(`{"password":"1234"}`))
	loginRec := httptest.NewRecorder()
	router.ServeHTTP(loginRec, login)
	cookie := sessionCookie(t, loginRec)
	require.NotNil(t, cookie)

	t.Run("with cookie returns payload", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/session", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"username":"admin"`)
	})

	t.Run("without cookie is 401", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/session", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
