package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetString(t *testing.T) {
	t.Setenv("ORGSYNC_TEST_STRING", "value")
	assert.Equal(t, "value", GetString("ORGSYNC_TEST_STRING"))
	assert.Equal(t, "", GetString("ORGSYNC_TEST_MISSING"))
	assert.Equal(t, "fallback", GetStringDefault("ORGSYNC_TEST_MISSING", "fallback"))
}

func TestGetInt(t *testing.T) {
	t.Setenv("ORGSYNC_TEST_INT", "7")
	t.Setenv("ORGSYNC_TEST_BAD_INT", "seven")
	assert.Equal(t, 7, GetInt("ORGSYNC_TEST_INT", 1))
	assert.Equal(t, 1, GetInt("ORGSYNC_TEST_BAD_INT", 1))
	assert.Equal(t, 1, GetInt("ORGSYNC_TEST_MISSING", 1))
}

func TestGetBool(t *testing.T) {
	t.Setenv("ORGSYNC_TEST_BOOL", "true")
	t.Setenv("ORGSYNC_TEST_BAD_BOOL", "sometimes")
	assert.True(t, GetBool("ORGSYNC_TEST_BOOL", false))
	assert.True(t, GetBool("ORGSYNC_TEST_BAD_BOOL", true))
	assert.False(t, GetBool("ORGSYNC_TEST_MISSING", false))
}

func TestGetDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"seconds", "3600", time.Hour},
		{"duration", "500ms", 500 * time.Millisecond},
		{"malformed", "soon", time.Minute},
		{"unset", "", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ORGSYNC_TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, GetDuration("ORGSYNC_TEST_DURATION", time.Minute))
		})
	}
}
