package config_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rota-engine/config"
	"github.com/warp/rota-engine/rota"
)

func setAnchors(t *testing.T) {
	t.Helper()
	t.Setenv("ROTA_DAY_ANCHOR", "2025-12-20")
	t.Setenv("ROTA_DAY_ANCHOR_GROUP", "B")
	t.Setenv("ROTA_REST_ANCHOR", "2025-12-12")
	t.Setenv("ROTA_REST_ANCHOR_GROUP", "B")
	t.Setenv("ROTA_REST_ANCHOR_SUBGROUP", "1")
}

func TestLoad_FullEnvironment(t *testing.T) {
	setAnchors(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ROTA_DB", ":memory:")
	t.Setenv("ROTA_QUOTA_PRICE", "4.50")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.True(t, cfg.QuotaPrice.Equal(decimal.RequireFromString("4.50")))
	assert.Equal(t, rota.NewDutyDate(2025, time.December, 20), cfg.Anchors.DayAnchorDate)
	assert.Equal(t, rota.GroupB, cfg.Anchors.DayAnchorGroup)
	assert.Equal(t, 1, cfg.Anchors.RestAnchorSubGroup)

	// The loaded anchors build a working clock.
	_, err = rota.NewShiftClock(cfg.Anchors)
	assert.NoError(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	setAnchors(t)
	t.Setenv("PORT", "")
	t.Setenv("ROTA_DB", "")
	t.Setenv("ROTA_QUOTA_PRICE", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "rota.db", cfg.DBPath)
	assert.True(t, cfg.QuotaPrice.IsZero())
}

func TestLoad_MissingAnchorIsFatal(t *testing.T) {
	// GIVEN: A complete environment minus one anchor variable
	// WHEN: Loading configuration
	// THEN: Load fails with the anchor sentinel; no default is invented

	setAnchors(t)
	t.Setenv("ROTA_DAY_ANCHOR", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, rota.ErrAnchorRequired)
}

func TestLoad_MalformedAnchors(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad date format", "ROTA_DAY_ANCHOR", "20/12/2025"},
		{"unknown group", "ROTA_DAY_ANCHOR_GROUP", "E"},
		{"sub-group out of range", "ROTA_REST_ANCHOR_SUBGROUP", "9"},
		{"sub-group not a number", "ROTA_REST_ANCHOR_SUBGROUP", "first"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setAnchors(t)
			t.Setenv(tc.key, tc.value)

			_, err := config.Load()
			assert.ErrorIs(t, err, rota.ErrAnchorRequired)
		})
	}
}
