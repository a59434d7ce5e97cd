package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	platformconfig "github.com/example/clipcast/internal/platform/config"
)

// Config holds all configuration for the analytics service.
type Config struct {
	App platformconfig.AppConfig

	// Store backend selection, first match wins:
	// DATABASE_URL > BADGER_DIR > DATA_FILE (flat JSON file, the default).
	DatabaseURL string
	BadgerDir   string
	DataFile    string

	// NATSURL enables the event publisher when non-empty.
	NATSURL string

	// IdentityTransport picks how viewer credentials travel:
	// "cookie" (default) or "bearer" (requires JWTSecret).
	IdentityTransport string
	JWTSecret         string
	CookieName        string
}

// Load reads Config from environment variables.
func Load() (Config, error) {
	app, err := platformconfig.Load()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		App:         app,
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		BadgerDir:   strings.TrimSpace(os.Getenv("BADGER_DIR")),
		DataFile:    strings.TrimSpace(os.Getenv("DATA_FILE")),
		NATSURL:     strings.TrimSpace(os.Getenv("NATS_URL")),

		IdentityTransport: strings.ToLower(strings.TrimSpace(os.Getenv("IDENTITY_TRANSPORT"))),
		JWTSecret:         strings.TrimSpace(os.Getenv("JWT_SECRET")),
		CookieName:        strings.TrimSpace(os.Getenv("COOKIE_NAME")),
	}
	if cfg.DataFile == "" {
		cfg.DataFile = "data/analytics.json"
	}
	if cfg.IdentityTransport == "" {
		cfg.IdentityTransport = "cookie"
	}
	if cfg.IdentityTransport == "bearer" && cfg.JWTSecret == "" {
		return Config{}, errors.New("IDENTITY_TRANSPORT=bearer requires JWT_SECRET")
	}
	if cfg.IdentityTransport != "cookie" && cfg.IdentityTransport != "bearer" {
		return Config{}, fmt.Errorf("unknown IDENTITY_TRANSPORT %q", cfg.IdentityTransport)
	}
	return cfg, nil
}
