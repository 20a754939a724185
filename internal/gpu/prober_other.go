//go:build !linux

package gpu

// NewProber returns nil: the NVML bindings load libnvidia-ml through dlopen,
// which is only wired up on Linux.
func NewProber() Prober {
	return nil
}
