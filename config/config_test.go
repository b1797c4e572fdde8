package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/contests?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("RESULTS_NOTIFY_EMAILS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Empty(t, cfg.NotifyEmails)
}

func TestLoad_RequiredVariables(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")

	setRequiredEnv(t)
	t.Setenv("JWT_SECRET_KEY", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET_KEY")
}

func TestLoad_InvalidPort(t *testing.T) {
	setRequiredEnv(t)

	for _, port := range []string{"abc", "0", "70000", "-1"} {
		t.Setenv("SERVER_PORT", port)
		_, err := Load()
		assert.Error(t, err, "port %q", port)
	}
}

func TestLoad_NotifyEmailsSplitAndTrimmed(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RESULTS_NOTIFY_EMAILS", "ops@example.com, admin@example.com ,,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@example.com", "admin@example.com"}, cfg.NotifyEmails)
}
