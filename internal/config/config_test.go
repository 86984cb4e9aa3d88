package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestDefaults tests the built-in fallbacks
func TestDefaults(t *testing.T) {
	t.Setenv("PM_CONSOLE_API_URL", "")
	t.Setenv("PM_CONSOLE_STATE_DIR", "")
	t.Setenv("PM_CONSOLE_TIMEOUT_SECONDS", "")

	cfg := Load()
	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.NotEmpty(t, cfg.StateDir)
}

// TestEnvironmentOverrides tests that env vars win over defaults
func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PM_CONSOLE_API_URL", "https://pm.example.com")
	t.Setenv("PM_CONSOLE_STATE_DIR", "/tmp/pm-test-state")
	t.Setenv("PM_CONSOLE_TIMEOUT_SECONDS", "5")

	cfg := Load()
	assert.Equal(t, "https://pm.example.com", cfg.APIBaseURL)
	assert.Equal(t, "/tmp/pm-test-state", cfg.StateDir)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

// TestInvalidTimeoutIgnored tests that a bad timeout keeps the default
func TestInvalidTimeoutIgnored(t *testing.T) {
	t.Setenv("PM_CONSOLE_TIMEOUT_SECONDS", "not-a-number")
	assert.Equal(t, 30*time.Second, Load().RequestTimeout)

	t.Setenv("PM_CONSOLE_TIMEOUT_SECONDS", "-3")
	assert.Equal(t, 30*time.Second, Load().RequestTimeout)
}
