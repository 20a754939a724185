package drs

import (
	stderrors "errors"
	"sync"
)

// Fake is an in-memory Session for tests. A setting absent from Settings
// reads as not found. Failing operations are keyed by the Op* names.
type Fake struct {
	mu sync.Mutex

	Settings map[uint32]uint32
	Fail     map[string]error

	Calls  []string
	Saved  map[uint32]uint32
	Closed bool
}

const fakeBaseProfile Profile = 1

// NewFake returns a Fake holding the given settings, already saved.
func NewFake(settings map[uint32]uint32) *Fake {
	f := &Fake{
		Settings: make(map[uint32]uint32),
		Saved:    make(map[uint32]uint32),
		Fail:     make(map[string]error),
	}
	for id, v := range settings {
		f.Settings[id] = v
		f.Saved[id] = v
	}

	return f
}

// Opener returns an Opener that always hands out f.
func (f *Fake) Opener() Opener {
	return func() (Session, error) {
		if err := f.fail(OpCreateSession); err != nil {
			return nil, err
		}
		return f, nil
	}
}

// Called reports whether op was invoked.
func (f *Fake) Called(op string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.Calls {
		if c == op {
			return true
		}
	}

	return false
}

func (f *Fake) fail(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, op)
	if err, ok := f.Fail[op]; ok {
		return APIError(op, err)
	}

	return nil
}

func (f *Fake) LoadSettings() error {
	return f.fail(OpLoadSettings)
}

func (f *Fake) BaseProfile() (Profile, error) {
	if err := f.fail(OpBaseProfile); err != nil {
		return 0, err
	}

	return fakeBaseProfile, nil
}

func (f *Fake) GetSetting(profile Profile, id uint32) (Setting, error) {
	if err := f.fail(OpGetSetting); err != nil {
		return Setting{}, err
	}
	if profile != fakeBaseProfile {
		return Setting{}, APIError(OpGetSetting, stderrors.New("invalid profile handle"))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.Settings[id]
	if !ok {
		return Setting{}, SettingNotFound(id)
	}

	return Setting{ID: id, Value: v}, nil
}

func (f *Fake) SetSetting(profile Profile, setting Setting) error {
	if err := f.fail(OpSetSetting); err != nil {
		return err
	}
	if profile != fakeBaseProfile {
		return APIError(OpSetSetting, stderrors.New("invalid profile handle"))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Settings[setting.ID] = setting.Value

	return nil
}

func (f *Fake) SaveSettings() error {
	if err := f.fail(OpSaveSettings); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for id, v := range f.Settings {
		f.Saved[id] = v
	}

	return nil
}

func (f *Fake) Close() error {
	if err := f.fail(OpCloseSession); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Closed = true

	return nil
}
