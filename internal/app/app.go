// Package app runs a single frltoggle invocation: it resolves the command,
// talks to the driver settings store and manages the saved-value file.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"codeberg.org/mutker/frltoggle/internal/command"
	"codeberg.org/mutker/frltoggle/internal/config"
	"codeberg.org/mutker/frltoggle/internal/drs"
	"codeberg.org/mutker/frltoggle/internal/errors"
	"codeberg.org/mutker/frltoggle/internal/fps"
	"codeberg.org/mutker/frltoggle/internal/gpu"
	"codeberg.org/mutker/frltoggle/internal/history"
	"codeberg.org/mutker/frltoggle/internal/logger"
	"codeberg.org/mutker/frltoggle/internal/savedfps"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
)

type App struct {
	Executable string
	Stdout     io.Writer
	Stderr     io.Writer

	OpenSession drs.Opener
	Store       *savedfps.Store
	Prober      gpu.Prober
	NewRecorder func(history.Config, logger.Logger) (history.Recorder, error)
}

// New returns an App wired to the real driver, filesystem and NVML.
func New(executable string) *App {
	return &App{
		Executable:  executable,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		OpenSession: drs.Open,
		Store:       savedfps.New(nil),
		Prober:      gpu.NewProber(),
		NewRecorder: history.NewRecorder,
	}
}

// Run executes the invocation described by args (program name excluded)
// and returns the process exit code.
func (a *App) Run(args []string) int {
	opts, tokens, err := config.ParseFlags(args)
	if err != nil {
		printUsage(a.Stdout)
		return ExitFailure
	}
	if opts.Help {
		printUsage(a.Stdout)
		return ExitSuccess
	}

	cfg, err := config.Load(opts, a.Executable)
	if err != nil {
		fmt.Fprintln(a.Stderr, err)
		return ExitFailure
	}

	logger.Init(a.Stderr, cfg.Level())

	op, err := command.Resolve(tokens)
	if command.IsUnrecognized(err) {
		printUsage(a.Stdout)
		if len(tokens) == 0 {
			return ExitSuccess
		}
		return ExitFailure
	}
	if err != nil {
		a.fail(err)
		return ExitFailure
	}

	if err := a.execute(op, cfg); err != nil {
		a.fail(err)
		return ExitFailure
	}

	return ExitSuccess
}

func (a *App) fail(err error) {
	logger.DebugWithCode(err).Msg("Command failed")
	fmt.Fprintln(a.Stderr, err)
}

func (a *App) savedFPSPath(cfg *config.Config) string {
	if cfg.SavedFPSPath != "" {
		return cfg.SavedFPSPath
	}

	return savedfps.DerivePath(a.Executable)
}

func (a *App) execute(op command.Operation, cfg *config.Config) error {
	path := a.savedFPSPath(cfg)

	logger.Debug().
		Str("command", command.Name(op)).
		Str("saved_fps_path", path).
		Msg("Resolved command")

	gpu.LogInfo(a.Prober)

	d, err := a.openDriver()
	if err != nil {
		return err
	}
	defer d.close()

	current, err := d.current()
	if err != nil {
		return err
	}

	switch op := op.(type) {
	case command.Status:
		fmt.Fprintln(a.Stdout, current)
		return nil

	case command.SetFPS:
		if err := a.preserve(op.Save, path, current); err != nil {
			return err
		}
		if err := d.apply(op.Value); err != nil {
			return err
		}
		a.record(cfg, op, op.Save, current, op.Value)
		return nil

	case command.LoadFile:
		value, _, err := a.Store.Read(path, fps.Strict)
		if err != nil {
			return err
		}
		// The file only goes away once the driver holds the value, so a
		// failed apply can be retried.
		if err := d.apply(value); err != nil {
			return err
		}
		if err := a.Store.Remove(path); err != nil {
			return err
		}
		a.record(cfg, op, command.SaveNone, current, value)
		return nil
	}

	return errors.New().WithMessage(errors.ErrInvalidOperation, "Unhandled code path!")
}

// preserve stores the current driver value according to policy before a
// new value is applied.
func (a *App) preserve(policy command.SavePolicy, path string, current fps.FPS) error {
	switch policy {
	case command.SaveNone:
		return nil

	case command.SavePrevious:
		return a.Store.Write(path, current)

	case command.SavePreviousOrReuse:
		saved, ok, err := a.Store.Read(path, fps.Tolerant)
		if err != nil {
			return err
		}
		if ok {
			// An existing value predates a crash and must survive.
			logger.Info().
				Str("path", path).
				Stringer("saved_fps", saved).
				Msg("Reusing existing saved FPS value")
			return nil
		}
		return a.Store.Write(path, current)
	}

	return errors.New().WithData(errors.ErrInvalidOperation, policy.String())
}

func (a *App) record(cfg *config.Config, op command.Operation, policy command.SavePolicy, previous, applied fps.FPS) {
	rec, err := a.NewRecorder(history.Config{Enabled: cfg.History, DBPath: cfg.HistoryDB}, logger.Default())
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to open history")
		return
	}
	defer func() {
		if err := rec.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close history")
		}
	}()

	err = rec.Record(context.Background(), &history.Entry{
		Operation:  command.Name(op),
		SavePolicy: policy.String(),
		Previous:   uint32(previous),
		Applied:    uint32(applied),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to record history")
	}
}
