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
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 50*time.Millisecond, cfg.CursorThrottle)
	assert.Equal(t, 3, cfg.ObjectCount)
	assert.False(t, cfg.Debug)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("CURSOR_THROTTLE", "80ms")
	t.Setenv("OBJECT_COUNT", "5")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 80*time.Millisecond, cfg.CursorThrottle)
	assert.Equal(t, 5, cfg.ObjectCount)
	assert.True(t, cfg.Debug)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("OBJECT_COUNT", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsNonPositiveThrottle(t *testing.T) {
	t.Setenv("CURSOR_THROTTLE", "0s")
	_, err := Load()
	assert.Error(t, err)
}
