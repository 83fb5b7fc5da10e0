package view

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":       "0.00",
		"250":     "250.00",
		"1234.5":  "1,234.50",
		"1000000": "1,000,000.00",
		"-0.505":  "-0.51",
		"19.999":  "20.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestResponderRenderPopsFlash(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	p := Responder{
		Templates:   engine,
		CSRF:        shared.NewCSRFManager("secret"),
		Permissions: func(*http.Request) []string { return []string{shared.PermDashboardView} },
	}

	sess := shared.NewSession()
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Saved"})
	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	rr := httptest.NewRecorder()
	p.Render(rr, req, "pages/login.html", "Login", map[string]any{"Errors": map[string]string{}}, http.StatusOK)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Saved")
	assert.Contains(t, rr.Body.String(), sess.Get(shared.CSRFSessionKey))
	assert.Nil(t, sess.PopFlash())
}

func TestRedirectWithFlash(t *testing.T) {
	sess := shared.NewSession()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rr := httptest.NewRecorder()

	Responder{}.RedirectWithFlash(rr, req, "/done", "error", "Nope")

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/done", rr.Header().Get("Location"))
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Nope", flash.Message)
}
