package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("CSRF_SECRET", "c")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "none", cfg.CheckoutStockPolicy)
	assert.Equal(t, 5, cfg.TopSellingLimit)
	assert.Equal(t, 10*time.Minute, cfg.DashboardCacheTTL)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	setRequired(t)
	t.Setenv("CHECKOUT_STOCK_POLICY", "reserve")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "CHECKOUT_STOCK_POLICY")

	t.Setenv("CHECKOUT_STOCK_POLICY", "decrement")
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "APP_TIMEZONE")

	t.Setenv("APP_TIMEZONE", "Local")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "IANA")
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "pos.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_TIMEZONE=Asia/Jakarta\nSTORE_NAME=Kopi Kita\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Cleanup(func() {
		_ = os.Unsetenv("APP_TIMEZONE")
		_ = os.Unsetenv("STORE_NAME")
	})

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "Kopi Kita", cfg.StoreName)
	assert.Equal(t, "Asia/Jakarta", cfg.Location().String())
}
