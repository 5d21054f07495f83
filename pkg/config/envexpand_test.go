package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("STRATLAB_TEST_HOST", "db.internal")
	t.Setenv("STRATLAB_TEST_PORT", "5432")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"braced", "host: ${STRATLAB_TEST_HOST}", "host: db.internal"},
		{"bare", "host: $STRATLAB_TEST_HOST", "host: db.internal"},
		{"multiple", "dsn: ${STRATLAB_TEST_HOST}:${STRATLAB_TEST_PORT}", "dsn: db.internal:5432"},
		{"missing expands empty", "key: ${STRATLAB_TEST_UNSET_VAR}", "key: "},
		{"no vars passthrough", "key: value", "key: value"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ExpandEnv([]byte(tc.in))
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestExpandEnv_EmptyInput(t *testing.T) {
	assert.Equal(t, []byte{}, ExpandEnv([]byte{}))
}

func TestMain_envUnaffected(t *testing.T) {
	// Sanity: ExpandEnv must not mutate process environment.
	before := os.Environ()
	ExpandEnv([]byte("${PATH}"))
	assert.Equal(t, before, os.Environ())
}
