package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "data/clinic.db", cfg.Database.Path)
	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Addr)
	assert.Equal(t, time.Hour, cfg.Reminders.LeadTime)
	assert.False(t, cfg.Reminders.SyncOnChange)
	assert.Equal(t, []string{"log"}, cfg.Reminders.Sinks)
	assert.True(t, cfg.Notifications.Enabled)
	assert.True(t, cfg.Seed.Enabled)
	assert.Empty(t, cfg.Secrets.SecretKey)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.NotEmpty(t, cfg.Server.CORSOrigins)

	loc, err := cfg.Reminders.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yaml := []byte(`
database:
  path: /tmp/other.db
reminders:
  lead_time: 30m
  sync_on_change: true
  timezone: UTC
  sinks: [log, email]
email:
  host: smtp.example.com
  port: 587
`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.yaml"), yaml, 0o644))

	t.Setenv("CLINIC_SEED_ENABLED", "false")
	t.Setenv("CLINIC_SECRET_KEY", "deadbeef")
	t.Setenv("CLINIC_EMAIL_PASSWORD", "hunter2")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Minute, cfg.Reminders.LeadTime)
	assert.True(t, cfg.Reminders.SyncOnChange)
	assert.True(t, cfg.Reminders.HasSink("email"))
	assert.False(t, cfg.Reminders.HasSink("redis"))
	assert.False(t, cfg.Seed.Enabled)
	assert.Equal(t, "deadbeef", cfg.Secrets.SecretKey)

	mail := cfg.ToEmailConfig()
	assert.Equal(t, "smtp.example.com", mail.Host)
	assert.Equal(t, 587, mail.Port)
	assert.Equal(t, "hunter2", mail.Password)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("CLINIC_REMINDERS_SINKS", "pager")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestReminderLocation(t *testing.T) {
	loc, err := ReminderConfig{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = ReminderConfig{Timezone: "Mars/Olympus_Mons"}.Location()
	assert.Error(t, err)
	assert.Nil(t, loc)

	chdir(t, t.TempDir())
	t.Setenv("CLINIC_REMINDERS_TIMEZONE", "Mars/Olympus_Mons")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "reminders.timezone")
}
