package dashboardhttp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-pos/odyssey-pos/internal/dashboard"
	"github.com/odyssey-pos/odyssey-pos/internal/rbac"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/view"
)

type stubService struct {
	d   dashboard.Dashboard
	err error
}

func (s stubService) Dashboard(context.Context) (dashboard.Dashboard, error) {
	return s.d, s.err
}

func sampleDashboard() dashboard.Dashboard {
	return dashboard.Dashboard{
		Counts: dashboard.Counts{Products: 12, Transactions: 3},
		SalesLast7Days: dashboard.Series{
			Labels: []string{"Mar 04", "Mar 05", "Mar 06", "Mar 07", "Mar 08", "Mar 09", "Mar 10"},
			Data:   []float64{0, 0, 0, 0, 0, 120, 275},
		},
		TopSellingProducts:          dashboard.Series{Labels: []string{"Kopi"}, Data: []float64{3}},
		TransactionsByPaymentMethod: dashboard.Series{Labels: []string{}, Data: []float64{}},
		ProductsByCategory:          dashboard.Series{Labels: []string{"Beverages"}, Data: []float64{12}},
		ProductsByBrand:             dashboard.Series{Labels: []string{}, Data: []float64{}},
	}
}

func newRouter(t *testing.T, svc DashboardService) http.Handler {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, svc, view.Responder{Templates: engine}, rbac.Middleware{})
	h.WithNow(func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) })
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func as(r *http.Request, user string, role rbac.Role) *http.Request {
	sess := shared.NewSession()
	sess.SetUser(user)
	ctx := shared.ContextWithSession(r.Context(), sess)
	ctx = rbac.ContextWithPermissions(ctx, rbac.Capabilities(role))
	return r.WithContext(ctx)
}

func TestDashboardPageRendersCharts(t *testing.T) {
	router := newRouter(t, stubService{d: sampleDashboard()})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/dashboard", nil), "1", rbac.RoleManager))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, "Sales last 7 days")
	assert.Contains(t, body, "No data yet")
	assert.Contains(t, body, "<strong>12</strong>")
}

func TestDashboardJSON(t *testing.T) {
	router := newRouter(t, stubService{d: sampleDashboard()})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/dashboard.json", nil), "1", rbac.RoleAdmin))

	require.Equal(t, http.StatusOK, rr.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.EqualValues(t, 12, payload["totalProducts"])
	sales := payload["salesLast7Days"].(map[string]any)
	assert.Len(t, sales["labels"], 7)
	assert.Equal(t, []any{}, payload["productsByBrand"].(map[string]any)["data"])
}

func TestDashboardRequiresPermission(t *testing.T) {
	router := newRouter(t, stubService{d: sampleDashboard()})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/dashboard", nil), "2", rbac.RoleCashier))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDashboardServiceError(t *testing.T) {
	router := newRouter(t, stubService{err: errors.New("db down")})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/dashboard.json", nil), "1", rbac.RoleAdmin))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestExportCSVIsRateLimited(t *testing.T) {
	router := newRouter(t, stubService{d: sampleDashboard()})
	for i := 0; i < ExportLimit; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/dashboard/export.csv", nil), "1", rbac.RoleAdmin))
		require.Equal(t, http.StatusOK, rr.Code)
		if i == 0 {
			assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
			assert.Contains(t, rr.Header().Get("Content-Disposition"), "dashboard-20250310.csv")
			assert.True(t, strings.HasPrefix(rr.Body.String(), "Section,Label,Value"))
		}
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/dashboard/export.csv", nil), "1", rbac.RoleAdmin))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	// a different operator has their own budget
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/dashboard/export.csv", nil), "9", rbac.RoleAdmin))
	assert.Equal(t, http.StatusOK, rr.Code)
}
