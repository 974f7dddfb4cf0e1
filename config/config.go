/*
Package config loads the engine's startup configuration.

The anchors are deployment constants, not tunables: without them there is
no deterministic rotation answer, so a missing or malformed anchor makes
Load fail and the server refuses to start. Everything else has a default.

ENVIRONMENT:
  ROTA_DAY_ANCHOR            date (2006-01-02) on which ROTA_DAY_ANCHOR_GROUP
                             was on day duty                        (required)
  ROTA_DAY_ANCHOR_GROUP      A|B|C|D                                (required)
  ROTA_REST_ANCHOR           date on which the rest anchor applies  (required)
  ROTA_REST_ANCHOR_GROUP     A|B|C|D                                (required)
  ROTA_REST_ANCHOR_SUBGROUP  1..8                                   (required)
  ROTA_QUOTA_PRICE           per-head daily quota, decimal          (default 0)
  ROTA_DB                    SQLite path, ":memory:" allowed        (default rota.db)
  PORT                       HTTP port                              (default 8080)

A .env file in the working directory is loaded first when present
(godotenv); real environment variables win over .env entries.
*/
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/warp/rota-engine/rota"
)

// Config is the engine's startup configuration.
type Config struct {
	Port       int
	DBPath     string
	Anchors    rota.AnchorConfig
	QuotaPrice decimal.Decimal
}

// Load reads configuration from .env (if present) and the environment.
// Anchor problems are returned as errors wrapping rota.ErrAnchorRequired.
func Load() (Config, error) {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg := Config{
		Port:       8080,
		DBPath:     "rota.db",
		QuotaPrice: decimal.Zero,
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("PORT: %w", err)
		}
		cfg.Port = p
	}
	if v := os.Getenv("ROTA_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("ROTA_QUOTA_PRICE"); v != "" {
		q, err := decimal.NewFromString(v)
		if err != nil {
			return Config{}, fmt.Errorf("ROTA_QUOTA_PRICE: %w", err)
		}
		cfg.QuotaPrice = q
	}

	anchors, err := loadAnchors()
	if err != nil {
		return Config{}, err
	}
	cfg.Anchors = anchors
	return cfg, nil
}

func loadAnchors() (rota.AnchorConfig, error) {
	var (
		anchors rota.AnchorConfig
		err     error
	)

	if anchors.DayAnchorDate, err = requireDate("ROTA_DAY_ANCHOR"); err != nil {
		return rota.AnchorConfig{}, err
	}
	if anchors.DayAnchorGroup, err = requireGroup("ROTA_DAY_ANCHOR_GROUP"); err != nil {
		return rota.AnchorConfig{}, err
	}
	if anchors.RestAnchorDate, err = requireDate("ROTA_REST_ANCHOR"); err != nil {
		return rota.AnchorConfig{}, err
	}
	if anchors.RestAnchorGroup, err = requireGroup("ROTA_REST_ANCHOR_GROUP"); err != nil {
		return rota.AnchorConfig{}, err
	}

	raw := os.Getenv("ROTA_REST_ANCHOR_SUBGROUP")
	if raw == "" {
		return rota.AnchorConfig{}, fmt.Errorf("%w: ROTA_REST_ANCHOR_SUBGROUP not set", rota.ErrAnchorRequired)
	}
	sub, convErr := strconv.Atoi(raw)
	if convErr != nil || !rota.ValidSubGroup(sub) {
		return rota.AnchorConfig{}, fmt.Errorf("%w: ROTA_REST_ANCHOR_SUBGROUP must be 1..8, got %q", rota.ErrAnchorRequired, raw)
	}
	anchors.RestAnchorSubGroup = sub

	if err := anchors.Validate(); err != nil {
		return rota.AnchorConfig{}, err
	}
	return anchors, nil
}

func requireDate(key string) (rota.DutyDate, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return rota.DutyDate{}, fmt.Errorf("%w: %s not set", rota.ErrAnchorRequired, key)
	}
	d, err := rota.ParseDutyDate(raw)
	if err != nil {
		return rota.DutyDate{}, fmt.Errorf("%w: %s: %v", rota.ErrAnchorRequired, key, err)
	}
	return d, nil
}

func requireGroup(key string) (rota.DutyGroup, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s not set", rota.ErrAnchorRequired, key)
	}
	g, err := rota.ParseGroup(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", rota.ErrAnchorRequired, key, err)
	}
	return g, nil
}
