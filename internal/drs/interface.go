// Package drs talks to the NVIDIA driver settings store (DRS), where the
// frame rate limiter lives as a DWORD setting of the base profile.
package drs

// Session is an open driver settings session.
type Session interface {
	// LoadSettings loads the current settings from the driver into the session.
	LoadSettings() error

	// BaseProfile returns the global profile all applications inherit from.
	BaseProfile() (Profile, error)

	// GetSetting reads a DWORD setting. It fails with
	// driver_setting_not_found when the setting was never stored.
	GetSetting(profile Profile, id uint32) (Setting, error)

	// SetSetting changes a DWORD setting in the session.
	SetSetting(profile Profile, setting Setting) error

	// SaveSettings persists the session back to the driver.
	SaveSettings() error

	// Close releases the session.
	Close() error
}

// Opener creates a Session.
type Opener func() (Session, error)

// Profile is an opaque profile handle.
type Profile uintptr

// Setting is a DWORD driver setting.
type Setting struct {
	ID    uint32
	Value uint32
}
