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

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.InDelta(t, 0.7, cfg.MatchThreshold, 1e-9)
	assert.Equal(t, 10, cfg.MatchLimit)
	assert.Equal(t, "tairitsu", cfg.ServiceName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(1024*1024), cfg.MaxRequestBodyBytes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TAIRITSU_PORT", "9090")
	t.Setenv("TAIRITSU_MATCH_THRESHOLD", "0.85")
	t.Setenv("TAIRITSU_JWT_EXPIRATION", "1h")
	t.Setenv("TAIRITSU_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.InDelta(t, 0.85, cfg.MatchThreshold, 1e-9)
	assert.Equal(t, time.Hour, cfg.JWTExpiration)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MalformedEnvFallsBack(t *testing.T) {
	t.Setenv("TAIRITSU_PORT", "not-a-number")
	t.Setenv("TAIRITSU_MATCH_THRESHOLD", "not-a-float")
	t.Setenv("TAIRITSU_READ_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.InDelta(t, 0.7, cfg.MatchThreshold, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
}

func TestValidate(t *testing.T) {
	valid := Config{
		DatabaseURL:         "postgres://localhost/tairitsu",
		MatchThreshold:      0.7,
		MatchLimit:          10,
		MaxRequestBodyBytes: 1024,
	}
	assert.NoError(t, valid.Validate())

	c := valid
	c.DatabaseURL = ""
	assert.Error(t, c.Validate())

	c = valid
	c.MatchThreshold = 0
	assert.Error(t, c.Validate())

	c = valid
	c.MatchThreshold = 1.5
	assert.Error(t, c.Validate())

	c = valid
	c.MatchLimit = 0
	assert.Error(t, c.Validate())

	c = valid
	c.MaxRequestBodyBytes = 0
	assert.Error(t, c.Validate())

	c = valid
	c.AuditRetention = -time.Hour
	assert.Error(t, c.Validate())
}
