//go:build linux

package gpu

import (
	"codeberg.org/mutker/frltoggle/internal/errors"
	"codeberg.org/mutker/frltoggle/internal/logger"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// nvmlController abstracts NVML operations for testing
type nvmlController interface {
	Initialize() error
	Shutdown() error
	GetDeviceCount() (int, error)
	GetDeviceName(index int) (string, error)
	GetDriverVersion() (string, error)
}

type nvmlWrapper struct {
	initialized bool
}

func (w *nvmlWrapper) Initialize() error {
	errFactory := errors.New()
	if w.initialized {
		return nil
	}

	ret := nvml.Init()
	if !IsNVMLSuccess(ret) {
		return errFactory.Wrap(ErrInitFailed, newNVMLError(ret))
	}

	w.initialized = true

	return nil
}

func (w *nvmlWrapper) Shutdown() error {
	errFactory := errors.New()
	if !w.initialized {
		return nil
	}

	ret := nvml.Shutdown()
	if !IsNVMLSuccess(ret) {
		return errFactory.Wrap(ErrShutdownFailed, newNVMLError(ret))
	}

	w.initialized = false

	return nil
}

func (w *nvmlWrapper) GetDeviceCount() (int, error) {
	errFactory := errors.New()
	if !w.initialized {
		return 0, errFactory.New(ErrNotInitialized)
	}

	count, ret := nvml.DeviceGetCount()
	if !IsNVMLSuccess(ret) {
		return 0, errFactory.Wrap(ErrDeviceCountFailed, newNVMLError(ret))
	}

	return count, nil
}

func (w *nvmlWrapper) GetDeviceName(index int) (string, error) {
	errFactory := errors.New()
	if !w.initialized {
		return "", errFactory.New(ErrNotInitialized)
	}

	device, ret := nvml.DeviceGetHandleByIndex(index)
	if !IsNVMLSuccess(ret) {
		return "", errFactory.Wrap(ErrDeviceNotFound, newNVMLError(ret))
	}

	name, ret := device.GetName()
	if !IsNVMLSuccess(ret) {
		return "", errFactory.Wrap(ErrDeviceInfoFailed, newNVMLError(ret))
	}

	return name, nil
}

func (w *nvmlWrapper) GetDriverVersion() (string, error) {
	errFactory := errors.New()
	if !w.initialized {
		return "", errFactory.New(ErrNotInitialized)
	}

	version, ret := nvml.SystemGetDriverVersion()
	if !IsNVMLSuccess(ret) {
		return "", errFactory.Wrap(ErrDeviceInfoFailed, newNVMLError(ret))
	}

	return version, nil
}

// nvmlError represents an NVML-specific error
type nvmlError struct {
	ret nvml.Return
}

func (e nvmlError) Error() string {
	return nvml.ErrorString(e.ret)
}

// newNVMLError creates an error from an NVML return code
func newNVMLError(ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}
	return &nvmlError{ret: ret}
}

// IsNVMLSuccess checks if a Return value indicates success
func IsNVMLSuccess(ret nvml.Return) bool {
	return ret == nvml.SUCCESS
}

type nvmlProber struct {
	nvml nvmlController
}

// NewProber returns a Prober backed by NVML.
func NewProber() Prober {
	return &nvmlProber{nvml: &nvmlWrapper{}}
}

func (p *nvmlProber) Probe() (Info, error) {
	errFactory := errors.New()

	if err := p.nvml.Initialize(); err != nil {
		return Info{}, err
	}
	defer func() {
		if err := p.nvml.Shutdown(); err != nil {
			logger.Debug().Err(err).Msg("Failed to shut down NVML")
		}
	}()

	count, err := p.nvml.GetDeviceCount()
	if err != nil {
		return Info{}, err
	}
	if count == 0 {
		return Info{}, errFactory.New(ErrNoDevices)
	}

	// Driver settings are global, so the first GPU is representative.
	name, err := p.nvml.GetDeviceName(0)
	if err != nil {
		return Info{}, err
	}

	version, err := p.nvml.GetDriverVersion()
	if err != nil {
		return Info{}, err
	}

	return Info{Name: name, DriverVersion: version, DeviceCount: count}, nil
}
