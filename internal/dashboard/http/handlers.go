package dashboardhttp

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/odyssey-pos/odyssey-pos/internal/dashboard"
	"github.com/odyssey-pos/odyssey-pos/internal/dashboard/export"
	"github.com/odyssey-pos/odyssey-pos/internal/dashboard/svg"
	"github.com/odyssey-pos/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-pos/odyssey-pos/internal/rbac"
	"github.com/odyssey-pos/odyssey-pos/internal/view"
)

const requestTimeout = 3 * time.Second

// DashboardService is the data contract used by the handler.
type DashboardService interface {
	Dashboard(ctx context.Context) (dashboard.Dashboard, error)
}

// Handler serves the dashboard as HTML, JSON and CSV.
type Handler struct {
	logger  *slog.Logger
	service DashboardService
	view    view.Responder
	rbac    rbac.Middleware
	csvPool sync.Pool
	now     func() time.Time
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService, responder view.Responder, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:  logger,
		service: service,
		view:    responder,
		rbac:    rbac,
		now:     time.Now,
	}
	h.csvPool.New = func() any { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// Chart is one rendered chart of the dashboard page.
type Chart struct {
	Title string
	SVG   template.HTML
	Empty bool
}

// ViewModel is what pages/dashboard/index.html renders.
type ViewModel struct {
	Dashboard dashboard.Dashboard
	Sales     Chart
	Charts    []Chart
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	vm, err := buildViewModel(d)
	if err != nil {
		h.serverError(w, "render charts", err)
		return
	}
	h.view.Render(w, r, "pages/dashboard/index.html", "Dashboard", map[string]any{"View": vm}, http.StatusOK)
}

func (h *Handler) handleJSON(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer h.csvPool.Put(buf)

	if err := export.WriteDashboardCSV(buf, d); err != nil {
		h.serverError(w, "write csv", err)
		return
	}
	filename := fmt.Sprintf("dashboard-%s.csv", h.now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("stream csv", slog.Any("error", err))
	}
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (dashboard.Dashboard, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	d, err := h.service.Dashboard(ctx)
	if err != nil {
		h.serverError(w, "load dashboard", err)
		return dashboard.Dashboard{}, false
	}
	return d, true
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
}

func buildViewModel(d dashboard.Dashboard) (ViewModel, error) {
	vm := ViewModel{Dashboard: d}
	sales, err := svg.Line(0, 0, d.SalesLast7Days.Data, d.SalesLast7Days.Labels, svg.LineOpts{
		Title:       "Sales last 7 days",
		Description: "Daily sales totals",
		ShowDots:    true,
	})
	if err != nil {
		return ViewModel{}, err
	}
	vm.Sales = Chart{Title: "Sales last 7 days", SVG: sales}

	bars := []struct {
		title  string
		color  string
		series dashboard.Series
	}{
		{"Top selling products", "#16a34a", d.TopSellingProducts},
		{"Transactions by payment method", "#9333ea", d.TransactionsByPaymentMethod},
		{"Products by category", "#0ea5e9", d.ProductsByCategory},
		{"Products by brand", "#f97316", d.ProductsByBrand},
	}
	for _, b := range bars {
		if b.series.Empty() {
			vm.Charts = append(vm.Charts, Chart{Title: b.title, SVG: svg.Empty(0, 0, b.title, ""), Empty: true})
			continue
		}
		out, err := svg.Bars(0, 0, b.series.Data, b.series.Labels, svg.BarOpts{Title: b.title, Color: b.color})
		if err != nil {
			return ViewModel{}, fmt.Errorf("%s: %w", b.title, err)
		}
		vm.Charts = append(vm.Charts, Chart{Title: b.title, SVG: out})
	}
	return vm, nil
}
