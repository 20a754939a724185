// Package gpu identifies the installed NVIDIA GPU through NVML. The limiter
// itself is a driver setting, so this is informational only.
package gpu

import "codeberg.org/mutker/frltoggle/internal/logger"

// Info describes the first GPU and the installed driver.
type Info struct {
	Name          string
	DriverVersion string
	DeviceCount   int
}

// Prober reports GPU information.
type Prober interface {
	Probe() (Info, error)
}

// LogInfo probes the GPU and logs the result. A nil Prober means NVML is
// not available on this platform. Failures are only warnings.
func LogInfo(p Prober) {
	if p == nil {
		return
	}

	info, err := p.Probe()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to identify GPU")
		return
	}

	logger.Debug().
		Str("gpu", info.Name).
		Str("driver_version", info.DriverVersion).
		Int("devices", info.DeviceCount).
		Msg("Detected GPU")
}
