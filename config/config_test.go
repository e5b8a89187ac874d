package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Totals", cfg.Views.TotalsContainer)
	assert.Equal(t, "Coupon", cfg.Views.CouponContainer)
	assert.Equal(t, "BasketPreviewList", cfg.Views.PreviewContainer)
	assert.Equal(t, 5*time.Second, cfg.Views.AddedOverlayTimeout)
	assert.Equal(t, "@every 5m", cfg.Sync.Schedule)
	assert.Equal(t, 24*time.Hour, cfg.Session.TokenExpiry)
	assert.Equal(t, 15*time.Minute, cfg.Gates.Expiry)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("VIEW_BASKET_CATEGORY_ID", "12")
	t.Setenv("VIEW_ADDED_OVERLAY_TIMEOUT", "2s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("GATE_EXPIRY", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Views.BasketCategoryID)
	assert.Equal(t, 2*time.Second, cfg.Views.AddedOverlayTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Gates.Expiry)
}

func TestParseDuration_Fallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
}
