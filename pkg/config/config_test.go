package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, BackendPostgres, cfg.Persistence.Primary)
	assert.Equal(t, BackendRealtime, cfg.Persistence.Mirror)
	assert.Equal(t, 5*time.Second, cfg.Persistence.Timeout)
	assert.Equal(t, 3, cfg.Persistence.Retries)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadPersistenceOverrides(t *testing.T) {
	t.Setenv("PERSISTENCE_PRIMARY", "REALTIME")
	t.Setenv("PERSISTENCE_MIRROR", "postgres")
	t.Setenv("PERSISTENCE_TIMEOUT", "30s")
	t.Setenv("PERSISTENCE_RETRIES", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendRealtime, cfg.Persistence.Primary)
	assert.Equal(t, BackendPostgres, cfg.Persistence.Mirror)
	assert.Equal(t, 10*time.Second, cfg.Persistence.Timeout)
	assert.Equal(t, 3, cfg.Persistence.Retries)
}

func TestLoadSameMirrorIsDisabled(t *testing.T) {
	t.Setenv("PERSISTENCE_PRIMARY", "postgres")
	t.Setenv("PERSISTENCE_MIRROR", "postgres")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendNone, cfg.Persistence.Mirror)
}

func TestLoadRejectsDevSecretInProduction(t *testing.T) {
	t.Setenv("ENV", EnvProduction)

	_, err := Load()
	require.Error(t, err)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
	assert.Equal(t, 3*time.Second, clampDuration(time.Second, 3*time.Second, 10*time.Second))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
	assert.Nil(t, splitAndTrim(""))
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())
}
