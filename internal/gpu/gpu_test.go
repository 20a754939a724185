//go:build linux

package gpu

import (
	stderrors "errors"
	"testing"

	"codeberg.org/mutker/frltoggle/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNVML struct {
	initErr     error
	count       int
	name        string
	version     string
	initialized bool
	shutdowns   int
}

func (f *fakeNVML) Initialize() error {
	if f.initErr != nil {
		return f.initErr
	}
	f.initialized = true
	return nil
}

func (f *fakeNVML) Shutdown() error {
	f.shutdowns++
	f.initialized = false
	return nil
}

func (f *fakeNVML) GetDeviceCount() (int, error) { return f.count, nil }

func (f *fakeNVML) GetDeviceName(index int) (string, error) {
	if index >= f.count {
		return "", errors.New().New(ErrDeviceNotFound)
	}
	return f.name, nil
}

func (f *fakeNVML) GetDriverVersion() (string, error) { return f.version, nil }

func TestProbe(t *testing.T) {
	fake := &fakeNVML{count: 1, name: "NVIDIA GeForce RTX 3080", version: "551.86"}
	p := &nvmlProber{nvml: fake}

	info, err := p.Probe()
	require.NoError(t, err)
	assert.Equal(t, Info{Name: "NVIDIA GeForce RTX 3080", DriverVersion: "551.86", DeviceCount: 1}, info)
	assert.Equal(t, 1, fake.shutdowns)
	assert.False(t, fake.initialized)
}

func TestProbeNoDevices(t *testing.T) {
	fake := &fakeNVML{}
	p := &nvmlProber{nvml: fake}

	_, err := p.Probe()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrNoDevices))
	assert.Equal(t, 1, fake.shutdowns)
}

func TestProbeInitFailure(t *testing.T) {
	fake := &fakeNVML{initErr: errors.New().Wrap(ErrInitFailed, stderrors.New("library not found"))}
	p := &nvmlProber{nvml: fake}

	_, err := p.Probe()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInitFailed))
	assert.Equal(t, 0, fake.shutdowns)
}

func TestWrapperRequiresInitialize(t *testing.T) {
	w := &nvmlWrapper{}

	_, err := w.GetDeviceCount()
	assert.True(t, errors.HasCode(err, ErrNotInitialized))

	_, err = w.GetDriverVersion()
	assert.True(t, errors.HasCode(err, ErrNotInitialized))

	assert.NoError(t, w.Shutdown())
}
