package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetBuiltinConfig_IsSingletonAndPopulated(t *testing.T) {
	a := GetBuiltinConfig()
	b := GetBuiltinConfig()

	assert.Same(t, a, b, "GetBuiltinConfig must return the same singleton instance")
	assert.Len(t, a.Templates, len(TemplateTags))
	assert.NotNil(t, a.Queue)
	assert.NotNil(t, a.Sandbox)
	assert.NotNil(t, a.Defaults)
	assert.NotNil(t, a.Retention)
}
