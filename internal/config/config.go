package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultAddr       = ":8080"
	DefaultIssuer     = "inkwell-api"
	DefaultAudience   = "inkwell-users"
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultBcryptCost = 12

	DefaultRateBurst       = 30
	DefaultRatePerSec      = 10
	DefaultLoginRateBurst  = 5
	DefaultLoginRatePerMin = 5
)

// Config holds all process-wide settings. It is constructed once at startup
// and passed by reference into the token and session layers so nothing in
// the core reads ambient environment state.
type Config struct {
	Addr  string
	PGDSN string

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string

	BcryptCost int

	RateBurst       int
	RatePerSec      int
	LoginRateBurst  int
	LoginRatePerMin int

	CORSOrigins  []string
	SecureCookie bool
	// DevMode relaxes browser-facing behavior (localhost CORS). Derived
	// from INKWELL_ENV; false when the environment is production.
	DevMode bool

	// Bootstrap admin for the one-time setup endpoint. Setup stays
	// disabled until a password is provided.
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// FromEnv loads configuration from INKWELL_* environment variables.
// Missing or equal signing secrets are a fatal startup condition: the
// service must never fall back to an empty or shared secret.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Addr:            envOr("INKWELL_ADDR", DefaultAddr),
		PGDSN:           os.Getenv("INKWELL_PG_DSN"),
		AccessSecret:    strings.TrimSpace(os.Getenv("INKWELL_ACCESS_SECRET")),
		RefreshSecret:   strings.TrimSpace(os.Getenv("INKWELL_REFRESH_SECRET")),
		Issuer:          envOr("INKWELL_JWT_ISSUER", DefaultIssuer),
		Audience:        envOr("INKWELL_JWT_AUDIENCE", DefaultAudience),
		BcryptCost:      DefaultBcryptCost,
		RateBurst:       DefaultRateBurst,
		RatePerSec:      DefaultRatePerSec,
		LoginRateBurst:  DefaultLoginRateBurst,
		LoginRatePerMin: DefaultLoginRatePerMin,
		SecureCookie:    envOr("INKWELL_ENV", "development") == "production",
		DevMode:         envOr("INKWELL_ENV", "development") != "production",
		AdminUsername:   envOr("INKWELL_ADMIN_USERNAME", "monika"),
		AdminEmail:      envOr("INKWELL_ADMIN_EMAIL", "admin@inkwell.local"),
		AdminPassword:   os.Getenv("INKWELL_ADMIN_PASSWORD"),
	}

	if cfg.AccessSecret == "" {
		return nil, errors.New("config: INKWELL_ACCESS_SECRET is required")
	}
	if cfg.RefreshSecret == "" {
		return nil, errors.New("config: INKWELL_REFRESH_SECRET is required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("config: access and refresh secrets must differ")
	}

	var err error
	if cfg.AccessTTL, err = envDuration("INKWELL_ACCESS_TTL", DefaultAccessTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = envDuration("INKWELL_REFRESH_TTL", DefaultRefreshTTL); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = envInt("INKWELL_BCRYPT_COST", DefaultBcryptCost); err != nil {
		return nil, err
	}
	if cfg.RateBurst, err = envInt("INKWELL_RATE_BURST", DefaultRateBurst); err != nil {
		return nil, err
	}
	if cfg.RatePerSec, err = envInt("INKWELL_RATE_PER_SEC", DefaultRatePerSec); err != nil {
		return nil, err
	}
	if cfg.LoginRateBurst, err = envInt("INKWELL_LOGIN_RATE_BURST", DefaultLoginRateBurst); err != nil {
		return nil, err
	}
	if cfg.LoginRatePerMin, err = envInt("INKWELL_LOGIN_RATE_PER_MIN", DefaultLoginRatePerMin); err != nil {
		return nil, err
	}

	if raw := strings.TrimSpace(os.Getenv("INKWELL_CORS_ORIGINS")); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return n, nil
}
