package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func withSession(r *http.Request, sess *shared.Session) *http.Request {
	return r.WithContext(shared.ContextWithSession(r.Context(), sess))
}

func TestRequireSignedIn(t *testing.T) {
	h := RequireSignedIn(okHandler())

	t.Run("anonymous browser is redirected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, withSession(httptest.NewRequest(http.MethodGet, "/dashboard", nil), shared.NewSession()))
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/auth/login", rr.Header().Get("Location"))
	})

	t.Run("anonymous api client gets 401", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard.json", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("signed in passes", func(t *testing.T) {
		sess := shared.NewSession()
		sess.SetUser("7")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, withSession(httptest.NewRequest(http.MethodGet, "/dashboard", nil), sess))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestCSRFMiddleware(t *testing.T) {
	csrf := shared.NewCSRFManager("secret")
	h := CSRFMiddleware(csrf, discardLogger())(okHandler())

	sess := shared.NewSession()
	token, err := csrf.EnsureToken(context.Background(), sess)
	require.NoError(t, err)

	t.Run("safe methods skip verification", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/transactions/new", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, withSession(httptest.NewRequest(http.MethodPost, "/transactions", nil), sess))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		req := withSession(httptest.NewRequest(http.MethodPost, "/transactions", nil), sess)
		req.Header.Set(shared.CSRFHeader, "nope")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("header token", func(t *testing.T) {
		req := withSession(httptest.NewRequest(http.MethodPost, "/transactions", nil), sess)
		req.Header.Set(shared.CSRFHeader, token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("form token", func(t *testing.T) {
		form := url.Values{shared.CSRFFormField: {token}}
		req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, withSession(req, sess))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestSessionMiddlewareCommitsChanges(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "pos_session", time.Hour, false)

	h := SessionMiddleware(sessions, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shared.SessionFromContext(r.Context()).SetUser("3")
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "pos_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "3", sess.User())
}
