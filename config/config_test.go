package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FileWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := `
postgres:
  dsn: postgres://file/db
nats:
  url: nats://file:4222
scheduler:
  utc_offset: 0s
  backend: river
signup:
  initiation_roles:
    trial: "111"
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))

	t.Setenv("NATS_URL", "nats://env:4222")
	t.Setenv("WIZARD_STEP_TIMEOUT", "45s")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://file/db", cfg.Postgres.DSN)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, time.Duration(0), cfg.Scheduler.SlotOffset(), "explicit zero offset is kept")
	assert.Equal(t, "river", cfg.Scheduler.Backend)
	assert.Equal(t, 45*time.Second, cfg.Wizard.StepTimeout)
	assert.Equal(t, defaultPrefillTimeout, cfg.Wizard.PrefillTimeout)
	assert.Equal(t, defaultReminderLead, cfg.Scheduler.ReminderLead)
	assert.Equal(t, map[string]string{"trial": "111"}, cfg.Signup.InitiationRoles)
}

func TestLoadConfig_FallsBackToEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("NATS_URL", "nats://env:4222")
	t.Setenv("SIGNUP_INITIATION_ROLES", "trial:1, pvp:2")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/db", cfg.Postgres.DSN)
	assert.Equal(t, -1*time.Hour, cfg.Scheduler.SlotOffset())
	assert.Equal(t, "memory", cfg.Scheduler.Backend)
	assert.Equal(t, map[string]string{"trial": "1", "pvp": "2"}, cfg.Signup.InitiationRoles)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 20.0, cfg.NATS.PlatformRate)
	assert.Equal(t, 10, cfg.NATS.PlatformBurst)
}

func TestLoadConfig_EnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing database url", env: map[string]string{"NATS_URL": "nats://x"}},
		{name: "missing nats url", env: map[string]string{"DATABASE_URL": "postgres://x"}},
		{name: "bad offset", env: map[string]string{"DATABASE_URL": "postgres://x", "NATS_URL": "nats://x", "SCHEDULER_UTC_OFFSET": "soon"}},
		{name: "bad platform rate", env: map[string]string{"DATABASE_URL": "postgres://x", "NATS_URL": "nats://x", "NATS_PLATFORM_RATE": "fast"}},
		{name: "bad initiation roles", env: map[string]string{"DATABASE_URL": "postgres://x", "NATS_URL": "nats://x", "SIGNUP_INITIATION_ROLES": "trial"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv("NATS_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
			assert.Error(t, err)
		})
	}
}
