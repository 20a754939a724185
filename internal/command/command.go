// Package command resolves user tokens into one of the operations the tool
// can perform.
package command

import (
	"strings"

	"codeberg.org/mutker/frltoggle/internal/errors"
	"codeberg.org/mutker/frltoggle/internal/fps"
)

const (
	StatusCommand   = "status"
	LoadFileCommand = "load-file"

	SavePreviousFlag        = "--save-previous"
	SavePreviousOrReuseFlag = "--save-previous-or-reuse"
)

// Operation is one of Status, SetFPS or LoadFile.
type Operation interface {
	operation()
}

// Status reads back the current limiter value.
type Status struct{}

// SetFPS applies Value, optionally saving the current value first.
type SetFPS struct {
	Value fps.FPS
	Save  SavePolicy
}

// LoadFile restores the limiter value from the saved-value file.
type LoadFile struct{}

func (Status) operation()   {}
func (SetFPS) operation()   {}
func (LoadFile) operation() {}

// SavePolicy controls what SetFPS does with the current value before
// applying the new one.
type SavePolicy int

const (
	SaveNone SavePolicy = iota
	SavePrevious
	SavePreviousOrReuse
)

func (p SavePolicy) String() string {
	switch p {
	case SaveNone:
		return "none"
	case SavePrevious:
		return "save-previous"
	case SavePreviousOrReuse:
		return "save-previous-or-reuse"
	default:
		return "unknown"
	}
}

// Name returns the command word for op, as used in logs and history.
func Name(op Operation) string {
	switch op.(type) {
	case Status:
		return StatusCommand
	case SetFPS:
		return "set"
	case LoadFile:
		return LoadFileCommand
	default:
		return "unknown"
	}
}

// Resolve maps the user tokens (program name excluded) to an Operation.
// Input that matches no command yields an invalid_argument error; a numeric
// first token outside the FPS domain yields out_of_range_fps.
func Resolve(tokens []string) (Operation, error) {
	if len(tokens) == 0 {
		return nil, unrecognized(tokens)
	}

	first := strings.TrimSpace(tokens[0])
	rest := tokens[1:]

	switch first {
	case StatusCommand:
		if len(rest) > 0 {
			return nil, unrecognized(tokens)
		}
		return Status{}, nil
	case LoadFileCommand:
		if len(rest) > 0 {
			return nil, unrecognized(tokens)
		}
		return LoadFile{}, nil
	}

	value, ok, err := fps.Parse(first, fps.Strict)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, unrecognized(tokens)
	}

	switch len(rest) {
	case 0:
		return SetFPS{Value: value, Save: SaveNone}, nil
	case 1:
		switch strings.TrimSpace(rest[0]) {
		case SavePreviousFlag:
			return SetFPS{Value: value, Save: SavePrevious}, nil
		case SavePreviousOrReuseFlag:
			return SetFPS{Value: value, Save: SavePreviousOrReuse}, nil
		}
	}

	return nil, unrecognized(tokens)
}

// IsUnrecognized reports whether err came from input matching no command.
func IsUnrecognized(err error) bool {
	return errors.HasCode(err, errors.ErrInvalidArgument)
}

func unrecognized(tokens []string) errors.Error {
	return errors.New().WithData(errors.ErrInvalidArgument, strings.Join(tokens, " "))
}
