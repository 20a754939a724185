package app_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/mutker/frltoggle/internal/app"
	"codeberg.org/mutker/frltoggle/internal/drs"
	"codeberg.org/mutker/frltoggle/internal/fps"
	"codeberg.org/mutker/frltoggle/internal/history"
	"codeberg.org/mutker/frltoggle/internal/logger"
	"codeberg.org/mutker/frltoggle/internal/savedfps"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const executable = "/opt/frltoggle/frltoggle.exe"

var savedPath = savedfps.DerivePath(executable)

type harness struct {
	app    *app.App
	driver *drs.Fake
	fs     afero.Fs
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newHarness(t *testing.T, settings map[uint32]uint32) *harness {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	t.Setenv("FRLTOGGLE_CONFIG", "")
	t.Setenv("FRLTOGGLE_LOG_LEVEL", "")
	t.Setenv("FRLTOGGLE_HISTORY", "")
	t.Setenv("FRLTOGGLE_SAVED_FPS_PATH", "")

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(filepath.Dir(executable), 0o755))

	h := &harness{
		driver: drs.NewFake(settings),
		fs:     fs,
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	h.app = &app.App{
		Executable:  executable,
		Stdout:      h.stdout,
		Stderr:      h.stderr,
		OpenSession: h.driver.Opener(),
		Store:       savedfps.New(fs),
		NewRecorder: history.NewRecorder,
	}

	return h
}

func withFPS(v uint32) map[uint32]uint32 {
	return map[uint32]uint32{fps.SettingID: v}
}

func (h *harness) savedContent(t *testing.T) (string, bool) {
	t.Helper()

	data, err := afero.ReadFile(h.fs, savedPath)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (h *harness) driverFPS() uint32 {
	return h.driver.Saved[fps.SettingID]
}

func TestNoArgumentsPrintsUsage(t *testing.T) {
	h := newHarness(t, withFPS(60))

	code := h.app.Run(nil)

	assert.Equal(t, app.ExitSuccess, code)
	assert.Contains(t, h.stdout.String(), "Usage")
	assert.Contains(t, h.stdout.String(), "[20, 1023]")
	assert.Empty(t, h.driver.Calls, "usage must not touch the driver")
}

func TestHelpFlagPrintsUsage(t *testing.T) {
	h := newHarness(t, withFPS(60))

	assert.Equal(t, app.ExitSuccess, h.app.Run([]string{"--help"}))
	assert.Contains(t, h.stdout.String(), "load-file")
}

func TestMalformedInvocationPrintsUsage(t *testing.T) {
	invocations := [][]string{
		{"toggle"},
		{"status", "extra"},
		{"60", "--keep"},
		{"60fps"},
		{"-5"},
		{"--save-previous", "60"},
	}

	for _, args := range invocations {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			h := newHarness(t, withFPS(60))

			code := h.app.Run(args)

			assert.Equal(t, app.ExitFailure, code)
			assert.Contains(t, h.stdout.String(), "Usage")
			assert.Empty(t, h.stderr.String())
			assert.Empty(t, h.driver.Calls)
		})
	}
}

func TestStatus(t *testing.T) {
	h := newHarness(t, withFPS(144))

	code := h.app.Run([]string{"status"})

	assert.Equal(t, app.ExitSuccess, code)
	assert.Equal(t, "144\n", h.stdout.String())
	assert.False(t, h.driver.Called(drs.OpSetSetting))
	assert.True(t, h.driver.Closed)
}

func TestStatusDisabled(t *testing.T) {
	h := newHarness(t, withFPS(uint32(fps.Disabled)))

	code := h.app.Run([]string{"status"})

	assert.Equal(t, app.ExitSuccess, code)
	assert.Equal(t, "0\n", h.stdout.String())
}

func TestSettingNeverSaved(t *testing.T) {
	h := newHarness(t, nil)

	code := h.app.Run([]string{"status"})

	assert.Equal(t, app.ExitFailure, code)
	assert.Contains(t, h.stderr.String(), "NVIDIA Control Panel")
	assert.Empty(t, h.stdout.String())
}

func TestDriverValueOutOfRange(t *testing.T) {
	h := newHarness(t, withFPS(5000))

	code := h.app.Run([]string{"60", "--save-previous"})

	assert.Equal(t, app.ExitFailure, code)
	assert.Contains(t, h.stderr.String(), "5000")
	_, exists := h.savedContent(t)
	assert.False(t, exists)
	assert.Equal(t, uint32(5000), h.driverFPS())
}

func TestSetFPS(t *testing.T) {
	h := newHarness(t, withFPS(60))

	code := h.app.Run([]string{"120"})

	assert.Equal(t, app.ExitSuccess, code)
	assert.Equal(t, uint32(120), h.driverFPS())
	_, exists := h.savedContent(t)
	assert.False(t, exists, "no save policy must not create the file")
}

func TestSetFPSSavePrevious(t *testing.T) {
	h := newHarness(t, withFPS(60))

	code := h.app.Run([]string{"120", "--save-previous"})

	assert.Equal(t, app.ExitSuccess, code)
	content, exists := h.savedContent(t)
	require.True(t, exists)
	assert.Equal(t, "60", content)
	assert.Equal(t, uint32(120), h.driverFPS())
}

func TestSetFPSSavePreviousOverwrites(t *testing.T) {
	h := newHarness(t, withFPS(90))
	require.NoError(t, afero.WriteFile(h.fs, savedPath, []byte("60"), 0o644))

	code := h.app.Run([]string{"120", "--save-previous"})

	assert.Equal(t, app.ExitSuccess, code)
	content, _ := h.savedContent(t)
	assert.Equal(t, "90", content)
}

func TestSetFPSSavePreviousOrReuseKeepsFirstSnapshot(t *testing.T) {
	h := newHarness(t, withFPS(60))

	require.Equal(t, app.ExitSuccess, h.app.Run([]string{"120", "--save-previous-or-reuse"}))
	first, exists := h.savedContent(t)
	require.True(t, exists)
	assert.Equal(t, "60", first)

	// The driver now holds 120; a second call must not clobber the snapshot.
	require.Equal(t, app.ExitSuccess, h.app.Run([]string{"144", "--save-previous-or-reuse"}))
	second, _ := h.savedContent(t)
	assert.Equal(t, first, second)
	assert.Equal(t, uint32(144), h.driverFPS())
}

func TestSetFPSSavePreviousOrReuseReplacesInvalidFile(t *testing.T) {
	for _, content := range []string{"garbage", "9999", ""} {
		t.Run(content, func(t *testing.T) {
			h := newHarness(t, withFPS(75))
			require.NoError(t, afero.WriteFile(h.fs, savedPath, []byte(content), 0o644))

			code := h.app.Run([]string{"120", "--save-previous-or-reuse"})

			assert.Equal(t, app.ExitSuccess, code)
			saved, _ := h.savedContent(t)
			assert.Equal(t, "75", saved)
		})
	}
}

func TestSetFPSOutOfRange(t *testing.T) {
	h := newHarness(t, withFPS(60))

	code := h.app.Run([]string{"9999 "})

	assert.Equal(t, app.ExitFailure, code)
	assert.Contains(t, h.stderr.String(), "9999")
	assert.Contains(t, h.stderr.String(), "[20, 1023]")
	assert.Equal(t, uint32(60), h.driverFPS())
	assert.Empty(t, h.driver.Calls)
}

func TestSetFPSApplyFailure(t *testing.T) {
	h := newHarness(t, withFPS(60))
	h.driver.Fail[drs.OpSaveSettings] = stderrors.New("NVAPI_ERROR")

	code := h.app.Run([]string{"120"})

	assert.Equal(t, app.ExitFailure, code)
	assert.Contains(t, h.stderr.String(), "Failed to save session settings!")
	assert.Equal(t, uint32(60), h.driverFPS())
}

func TestLoadFile(t *testing.T) {
	h := newHarness(t, withFPS(120))
	require.NoError(t, afero.WriteFile(h.fs, savedPath, []byte("60"), 0o644))

	code := h.app.Run([]string{"load-file"})

	assert.Equal(t, app.ExitSuccess, code)
	assert.Equal(t, uint32(60), h.driverFPS())
	_, exists := h.savedContent(t)
	assert.False(t, exists, "file must be removed after a successful load")

	// A second load has nothing left to restore.
	h.stderr.Reset()
	code = h.app.Run([]string{"load-file"})
	assert.Equal(t, app.ExitFailure, code)
	assert.Contains(t, h.stderr.String(), savedPath)
}

func TestLoadFileMissing(t *testing.T) {
	h := newHarness(t, withFPS(120))

	code := h.app.Run([]string{"load-file"})

	assert.Equal(t, app.ExitFailure, code)
	assert.Contains(t, h.stderr.String(), "Failed to open file")
	assert.False(t, h.driver.Called(drs.OpSetSetting))
	assert.Equal(t, uint32(120), h.driverFPS())
}

func TestLoadFileCorrupt(t *testing.T) {
	h := newHarness(t, withFPS(120))
	require.NoError(t, afero.WriteFile(h.fs, savedPath, []byte("sixty"), 0o644))

	code := h.app.Run([]string{"load-file"})

	assert.Equal(t, app.ExitFailure, code)
	assert.False(t, h.driver.Called(drs.OpSetSetting))
	_, exists := h.savedContent(t)
	assert.True(t, exists)
}

func TestLoadFileApplyFailureKeepsFile(t *testing.T) {
	h := newHarness(t, withFPS(120))
	require.NoError(t, afero.WriteFile(h.fs, savedPath, []byte("60"), 0o644))
	h.driver.Fail[drs.OpSetSetting] = stderrors.New("NVAPI_ERROR")

	code := h.app.Run([]string{"load-file"})

	assert.Equal(t, app.ExitFailure, code)
	content, exists := h.savedContent(t)
	require.True(t, exists, "file must survive a failed apply")
	assert.Equal(t, "60", content)

	delete(h.driver.Fail, drs.OpSetSetting)
	assert.Equal(t, app.ExitSuccess, h.app.Run([]string{"load-file"}))
	assert.Equal(t, uint32(60), h.driverFPS())
}

func TestCrashRecoveryCycle(t *testing.T) {
	h := newHarness(t, withFPS(60))

	require.Equal(t, app.ExitSuccess, h.app.Run([]string{"30", "--save-previous-or-reuse"}))
	// Crash: load-file never ran. The next session starts over.
	require.Equal(t, app.ExitSuccess, h.app.Run([]string{"30", "--save-previous-or-reuse"}))
	require.Equal(t, app.ExitSuccess, h.app.Run([]string{"load-file"}))

	assert.Equal(t, uint32(60), h.driverFPS())
	_, exists := h.savedContent(t)
	assert.False(t, exists)
}

func TestSavedFPSPathOverride(t *testing.T) {
	h := newHarness(t, withFPS(60))
	custom := "/var/tmp/frl.saved_fps"
	t.Setenv("FRLTOGGLE_SAVED_FPS_PATH", custom)

	require.Equal(t, app.ExitSuccess, h.app.Run([]string{"120", "--save-previous"}))

	data, err := afero.ReadFile(h.fs, custom)
	require.NoError(t, err)
	assert.Equal(t, "60", string(data))
	_, exists := h.savedContent(t)
	assert.False(t, exists)
}

func TestHistoryRecordsChanges(t *testing.T) {
	h := newHarness(t, withFPS(60))
	dbPath := filepath.Join(t.TempDir(), "history.db")
	t.Setenv("FRLTOGGLE_HISTORY", "true")
	t.Setenv("FRLTOGGLE_HISTORY_DB", dbPath)

	require.Equal(t, app.ExitSuccess, h.app.Run([]string{"120", "--save-previous"}))
	require.Equal(t, app.ExitSuccess, h.app.Run([]string{"status"}))
	require.Equal(t, app.ExitSuccess, h.app.Run([]string{"load-file"}))

	rec, err := history.NewRecorder(history.Config{Enabled: true, DBPath: dbPath}, logger.Default())
	require.NoError(t, err)
	defer rec.Close()

	entries, err := rec.Last(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2, "status is not a change")
	assert.Equal(t, "load-file", entries[0].Operation)
	assert.Equal(t, uint32(120), entries[0].Previous)
	assert.Equal(t, uint32(60), entries[0].Applied)
	assert.Equal(t, "set", entries[1].Operation)
	assert.Equal(t, "save-previous", entries[1].SavePolicy)
}

func TestHistoryFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, withFPS(60))
	h.app.NewRecorder = failingRecorder

	assert.Equal(t, app.ExitSuccess, h.app.Run([]string{"120"}))
	assert.Equal(t, uint32(120), h.driverFPS())
}

func TestLogLevelFlag(t *testing.T) {
	h := newHarness(t, withFPS(60))

	code := h.app.Run([]string{"--log-level", "debug", "status"})

	assert.Equal(t, app.ExitSuccess, code)
	assert.Equal(t, "60\n", h.stdout.String())
	assert.Contains(t, h.stderr.String(), "Resolved command")
}

func TestInvalidLogLevel(t *testing.T) {
	h := newHarness(t, withFPS(60))

	code := h.app.Run([]string{"--log-level", "loud", "status"})

	assert.Equal(t, app.ExitFailure, code)
	assert.Contains(t, h.stderr.String(), "loud")
	assert.Empty(t, h.driver.Calls)
}
