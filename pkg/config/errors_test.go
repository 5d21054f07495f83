package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_ErrorMessage(t *testing.T) {
	err := NewValidationError("template", "conservative", "stop_loss_pct", ErrInvalidValue)
	assert.Contains(t, err.Error(), "template")
	assert.Contains(t, err.Error(), "conservative")
	assert.Contains(t, err.Error(), "stop_loss_pct")

	noField := NewValidationError("queue", "", "", ErrMissingRequiredField)
	assert.NotContains(t, noField.Error(), "field '")
}

func TestValidationError_Unwrap(t *testing.T) {
	err := NewValidationError("sandbox", "", "base_dir", ErrMissingRequiredField)
	assert.True(t, errors.Is(err, ErrMissingRequiredField))
}

func TestLoadError_ErrorMessage(t *testing.T) {
	underlying := errors.New("permission denied")
	err := NewLoadError("stratlab.yaml", underlying)
	assert.Contains(t, err.Error(), "stratlab.yaml")
	assert.Contains(t, err.Error(), "permission denied")
	assert.True(t, errors.Is(err, underlying))
}
