// Package savedfps keeps a single FPS value in a file next to the
// executable so a later invocation can restore it.
package savedfps

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/mutker/frltoggle/internal/errors"
	"codeberg.org/mutker/frltoggle/internal/fps"
	"codeberg.org/mutker/frltoggle/internal/logger"
	"github.com/spf13/afero"
)

const (
	Extension = "saved_fps"

	defaultFilePerm = 0o644
)

// DerivePath returns the saved-value path for an executable: same
// directory and stem, extension replaced by Extension.
func DerivePath(executable string) string {
	return strings.TrimSuffix(executable, filepath.Ext(executable)) + "." + Extension
}

type Store struct {
	fs afero.Fs
}

// New returns a Store on fs, or on the OS filesystem when fs is nil.
func New(fs afero.Fs) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return &Store{fs: fs}
}

// Read returns the saved value at path. In tolerant mode a missing,
// unreadable or invalid file reads as absent; in strict mode each of those
// is an error.
func (s *Store) Read(path string, mode fps.Mode) (fps.FPS, bool, error) {
	errFactory := errors.New()

	file, err := s.fs.Open(path)
	if err != nil {
		if mode == fps.Tolerant {
			logger.Debug().Str("path", path).Err(err).Msg("No usable saved FPS file")
			return 0, false, nil
		}
		return 0, false, errFactory.Wrap(errors.ErrFileAccess, err).
			WithMessage(fmt.Sprintf("Failed to open file %s for reading", path))
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Split(bufio.ScanWords)

	var token string
	if scanner.Scan() {
		token = scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		if mode == fps.Tolerant {
			return 0, false, nil
		}
		return 0, false, errFactory.Wrap(errors.ErrFileAccess, err).
			WithMessage(fmt.Sprintf("Failed to read file %s", path))
	}

	value, ok, err := fps.Parse(token, mode)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		if mode == fps.Tolerant {
			logger.Debug().Str("path", path).Str("content", token).Msg("Ignoring invalid saved FPS file")
			return 0, false, nil
		}
		return 0, false, errFactory.WithMessage(errors.ErrSavedValueCorrupt,
			fmt.Sprintf("File %s does not contain a valid FPS value: %q", path, token))
	}

	return value, true, nil
}

// Write replaces the content of path with value in plain decimal.
func (s *Store) Write(path string, value fps.FPS) error {
	errFactory := errors.New()

	file, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, defaultFilePerm)
	if err != nil {
		return errFactory.Wrap(errors.ErrFileAccess, err).
			WithMessage(fmt.Sprintf("Failed to open file %s for writing", path))
	}

	if _, err := file.WriteString(value.String()); err != nil {
		file.Close()
		return errFactory.Wrap(errors.ErrFileAccess, err).
			WithMessage(fmt.Sprintf("Failed to write file %s", path))
	}

	if err := file.Close(); err != nil {
		return errFactory.Wrap(errors.ErrFileAccess, err).
			WithMessage(fmt.Sprintf("Failed to write file %s", path))
	}

	logger.Debug().Str("path", path).Stringer("fps", value).Msg("Saved FPS value")

	return nil
}

// Remove deletes path. A file that is already gone is not an error.
func (s *Store) Remove(path string) error {
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrFileAccess, err).
			WithMessage(fmt.Sprintf("Failed to remove file %s", path))
	}

	logger.Debug().Str("path", path).Msg("Removed saved FPS file")

	return nil
}
