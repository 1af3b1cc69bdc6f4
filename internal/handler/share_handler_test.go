package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
)

func TestParsePercentage(t *testing.T) {
	got, err := parsePercentage("")
	require.NoError(t, err)
	assert.Nil(t, got)

	for raw, want := range map[string]int{"0": 0, "50": 50, "99.9": 99, "100": 100, "100.0": 100} {
		got, err := parsePercentage(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, *got, raw)
	}

	for _, raw := range []string{"abc", "NaN", "-1.5", "1e9", "Inf"} {
		_, err := parsePercentage(raw)
		assert.ErrorIs(t, err, appErrors.ErrValidation, raw)
	}
}
