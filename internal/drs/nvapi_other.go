//go:build !windows

package drs

import stderrors "errors"

var errUnsupportedPlatform = stderrors.New("NVAPI driver settings are only available on Windows")

// Open always fails: the driver settings store is a Windows-only API.
func Open() (Session, error) {
	return nil, APIError(OpCreateSession, errUnsupportedPlatform)
}
