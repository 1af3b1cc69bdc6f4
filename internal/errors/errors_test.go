package appErrors_test

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
)

func TestNotFoundMatchesSentinel(t *testing.T) {
	err := errors.Wrap(appErrors.NewNotFound("share", "abc"), "lookup")

	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Contains(t, err.Error(), "share abc not found")

	var nf *appErrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.Equal(t, "share", nf.Entity)
}

func TestValidationMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("create share: %w", appErrors.NewValidation("percentage", "must be between 0 and 100"))

	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.NotErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "create share: percentage: must be between 0 and 100", err.Error())
}
