package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"codeberg.org/mutker/frltoggle/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	errFactory := errors.New()

	err := errFactory.New(errors.ErrFileAccess)
	assert.Equal(t, "Failed to access saved FPS file", err.Error())

	err = errFactory.WithMessage(errors.ErrOutOfRangeFPS, "FPS value 9999 is out of range")
	assert.Equal(t, "FPS value 9999 is out of range", err.Error())

	err = errFactory.Wrap(errors.ErrDriverAPI, stderrors.New("boom")).WithMessage("Failed to set FRL setting!")
	assert.Equal(t, "Failed to set FRL setting!: boom", err.Error())
}

func TestHasCode(t *testing.T) {
	errFactory := errors.New()

	inner := errFactory.New(errors.ErrDriverSettingNotFound)
	outer := errFactory.Wrap(errors.ErrOperationFailed, fmt.Errorf("context: %w", inner))

	assert.True(t, errors.HasCode(outer, errors.ErrOperationFailed))
	assert.True(t, errors.HasCode(outer, errors.ErrDriverSettingNotFound))
	assert.False(t, errors.HasCode(outer, errors.ErrFileAccess))
	assert.False(t, errors.HasCode(stderrors.New("plain"), errors.ErrInternal))
	assert.False(t, errors.HasCode(nil, errors.ErrInternal))
}

func TestCodeOf(t *testing.T) {
	errFactory := errors.New()

	assert.Equal(t, errors.ErrFileAccess, errors.CodeOf(errFactory.New(errors.ErrFileAccess)))
	assert.Equal(t, errors.ErrInternal, errors.CodeOf(stderrors.New("plain")))
}
