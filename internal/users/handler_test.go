package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-pos/odyssey-pos/internal/rbac"
	internalShared "github.com/odyssey-pos/odyssey-pos/internal/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/view"
)

type stubRoles struct{}

func (stubRoles) ListRoles(context.Context) ([]rbac.RoleRecord, error) {
	return []rbac.RoleRecord{{ID: 1, Name: rbac.RoleAdmin}, {ID: 2, Name: rbac.RoleManager}, {ID: 3, Name: rbac.RoleCashier}}, nil
}

func newRouter(t *testing.T) (http.Handler, *mockRepo) {
	t.Helper()
	svc, repo, _ := newTestService()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	h := NewHandler(svc.Logger, svc, stubRoles{}, view.Responder{Templates: engine}, rbac.Middleware{})
	r := chi.NewRouter()
	r.Route("/users", h.MountRoutes)
	return r, repo
}

func as(r *http.Request, role rbac.Role) *http.Request {
	sess := internalShared.NewSession()
	sess.SetUser("1")
	ctx := internalShared.ContextWithSession(r.Context(), sess)
	return r.WithContext(rbac.ContextWithPermissions(ctx, rbac.Capabilities(role)))
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestCreateUserRedirects(t *testing.T) {
	router, repo := newRouter(t)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, as(postForm("/users", url.Values{
		"name": {"Rina"}, "email": {"rina@example.com"}, "password": {"s3cretpass"}, "role_id": {"3"},
	}), rbac.RoleAdmin))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/users", rr.Header().Get("Location"))
	assert.Len(t, repo.users, 1)
}

func TestCreateUserRerendersWithErrors(t *testing.T) {
	router, _ := newRouter(t)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, as(postForm("/users", url.Values{
		"name": {"Rina"}, "email": {"rina"}, "password": {"s3cretpass"}, "role_id": {"3"},
	}), rbac.RoleAdmin))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Email must be a valid email address")
	assert.Contains(t, body, `value="Rina"`)
	assert.NotContains(t, body, "s3cretpass")
}

func TestManagerCanListButNotManage(t *testing.T) {
	router, _ := newRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/users", nil), rbac.RoleManager))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/users/new", nil), rbac.RoleManager))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/users", nil), rbac.RoleCashier))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDeleteSelfFlashesError(t *testing.T) {
	router, repo := newRouter(t)
	repo.users[1] = User{ID: 1, Name: "Admin", Email: "admin@example.com", RoleID: 1}

	req := as(postForm("/users/1/delete", url.Values{}), rbac.RoleAdmin)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.False(t, repo.trashed[1])
	flash := internalShared.SessionFromContext(req.Context()).PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "You cannot delete your own account", flash.Message)
}
