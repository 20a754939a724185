package app_test

import (
	stderrors "errors"

	"codeberg.org/mutker/frltoggle/internal/history"
	"codeberg.org/mutker/frltoggle/internal/logger"
)

func failingRecorder(history.Config, logger.Logger) (history.Recorder, error) {
	return nil, stderrors.New("history unavailable")
}
