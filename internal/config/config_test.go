package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("INKWELL_ACCESS_SECRET", "access-secret")
	t.Setenv("INKWELL_REFRESH_SECRET", "refresh-secret")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequiredSecrets(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, DefaultIssuer, cfg.Issuer)
	assert.Equal(t, DefaultAudience, cfg.Audience)
	assert.Equal(t, 24*time.Hour, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, DefaultBcryptCost, cfg.BcryptCost)
	assert.False(t, cfg.SecureCookie)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "monika", cfg.AdminUsername)
	assert.Empty(t, cfg.AdminPassword)
}

func TestFromEnvMissingSecretsFatal(t *testing.T) {
	t.Setenv("INKWELL_ACCESS_SECRET", "")
	t.Setenv("INKWELL_REFRESH_SECRET", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INKWELL_ACCESS_SECRET")
}

func TestFromEnvRejectsSharedSecret(t *testing.T) {
	t.Setenv("INKWELL_ACCESS_SECRET", "same")
	t.Setenv("INKWELL_REFRESH_SECRET", "same")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestFromEnvOverrides(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("INKWELL_ACCESS_TTL", "15m")
	t.Setenv("INKWELL_REFRESH_TTL", "48h")
	t.Setenv("INKWELL_ENV", "production")
	t.Setenv("INKWELL_CORS_ORIGINS", "https://blog.example.com, https://admin.example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 48*time.Hour, cfg.RefreshTTL)
	assert.True(t, cfg.SecureCookie)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, []string{"https://blog.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
}

func TestFromEnvInvalidDuration(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("INKWELL_ACCESS_TTL", "not-a-duration")

	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnvNonPositiveInt(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("INKWELL_RATE_BURST", "0")

	_, err := FromEnv()
	require.Error(t, err)
}
