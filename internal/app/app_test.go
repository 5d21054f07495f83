package app

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOrEmpty_EmptyNameReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", envOrEmpty(""))
}

func TestEnvOrEmpty_ReadsNamedVariable(t *testing.T) {
	const key = "STRATLAB_TEST_ENVOREMPTY"
	t.Setenv(key, "shh")
	assert.Equal(t, "shh", envOrEmpty(key))
}

func TestEnvOrEmpty_UnsetVariableReturnsEmpty(t *testing.T) {
	const key = "STRATLAB_TEST_ENVOREMPTY_UNSET"
	os.Unsetenv(key)
	assert.Equal(t, "", envOrEmpty(key))
}
