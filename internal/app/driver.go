package app

import (
	"codeberg.org/mutker/frltoggle/internal/drs"
	"codeberg.org/mutker/frltoggle/internal/fps"
	"codeberg.org/mutker/frltoggle/internal/logger"
)

// driver is a loaded session positioned on the base profile.
type driver struct {
	session drs.Session
	profile drs.Profile
}

func (a *App) openDriver() (*driver, error) {
	session, err := a.OpenSession()
	if err != nil {
		return nil, err
	}

	if err := session.LoadSettings(); err != nil {
		session.Close()
		return nil, err
	}

	profile, err := session.BaseProfile()
	if err != nil {
		session.Close()
		return nil, err
	}

	return &driver{session: session, profile: profile}, nil
}

// current returns the limiter value stored in the base profile.
func (d *driver) current() (fps.FPS, error) {
	setting, err := d.session.GetSetting(d.profile, fps.SettingID)
	if err != nil {
		return 0, err
	}

	value, _, err := fps.Validate(uint64(setting.Value), fps.Strict)
	if err != nil {
		return 0, err
	}

	logger.Debug().Stringer("fps", value).Msg("Current FRL value")

	return value, nil
}

// apply writes value to the base profile and persists the session.
func (d *driver) apply(value fps.FPS) error {
	setting := drs.Setting{ID: fps.SettingID, Value: uint32(value)}
	if err := d.session.SetSetting(d.profile, setting); err != nil {
		return err
	}

	if err := d.session.SaveSettings(); err != nil {
		return err
	}

	logger.Info().Stringer("fps", value).Msg("FRL value applied")

	return nil
}

func (d *driver) close() {
	if err := d.session.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close driver settings session")
	}
}
