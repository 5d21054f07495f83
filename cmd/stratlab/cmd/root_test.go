package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv_FallsBackToDefault(t *testing.T) {
	const key = "STRATLAB_TEST_GETENV_UNSET"
	os.Unsetenv(key)
	assert.Equal(t, "fallback", getEnv(key, "fallback"))
}

func TestGetEnv_PrefersSetValue(t *testing.T) {
	const key = "STRATLAB_TEST_GETENV_SET"
	t.Setenv(key, "configured")
	assert.Equal(t, "configured", getEnv(key, "fallback"))
}
