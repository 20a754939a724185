package drs

import (
	"fmt"

	"codeberg.org/mutker/frltoggle/internal/errors"
)

const (
	ErrSettingNotFound = errors.ErrDriverSettingNotFound
	ErrDriverAPI       = errors.ErrDriverAPI
)

// Operations named in driver errors.
const (
	OpInitialize    = "initialize NVAPI"
	OpCreateSession = "create session"
	OpLoadSettings  = "load session settings"
	OpBaseProfile   = "get base profile"
	OpGetSetting    = "get FRL setting"
	OpSetSetting    = "set FRL setting"
	OpSaveSettings  = "save session settings"
	OpCloseSession  = "destroy session"
)

// SettingNotFound is the error for a setting absent from the profile.
func SettingNotFound(id uint32) errors.Error {
	return errors.New().WithMessage(ErrSettingNotFound, fmt.Sprintf(
		"Failed to get FRL setting 0x%08X! Make sure that setting has been saved at least once via NVIDIA Control Panel.",
		id))
}

// APIError is the error for a failed driver call.
func APIError(op string, cause error) errors.Error {
	return errors.New().Wrap(ErrDriverAPI, cause).
		WithMessage(fmt.Sprintf("Failed to %s!", op))
}
