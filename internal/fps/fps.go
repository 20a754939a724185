// Package fps holds the frame rate limiter value domain shared by the
// command line, the saved-value file and the driver read-back.
package fps

import (
	"fmt"
	"strconv"
	"strings"

	"codeberg.org/mutker/frltoggle/internal/errors"
)

// Values from the NVAPI driver settings header.
const (
	SettingID uint32 = 0x10835002

	Min      FPS = 0x14
	Max      FPS = 0x3ff
	Disabled FPS = 0x00
)

// FPS is a frame rate limiter value as stored in the driver setting.
type FPS uint32

// Mode selects how a value outside the domain is reported.
type Mode int

const (
	// Strict reports invalid values as out_of_range_fps errors.
	Strict Mode = iota
	// Tolerant reports invalid values as absent.
	Tolerant
)

func (v FPS) String() string {
	return strconv.FormatUint(uint64(v), 10)
}

// IsDisabled reports whether v turns the limiter off.
func (v FPS) IsDisabled() bool {
	return v == Disabled
}

// Validate checks v against [Min, Max] ∪ {Disabled}.
func Validate(v uint64, mode Mode) (FPS, bool, error) {
	if v == uint64(Disabled) || (v >= uint64(Min) && v <= uint64(Max)) {
		return FPS(v), true, nil
	}

	if mode == Tolerant {
		return 0, false, nil
	}

	return 0, false, outOfRange(strconv.FormatUint(v, 10))
}

// Parse reads a whole-token decimal FPS value. Surrounding whitespace is
// ignored. A token with any non-digit character is not a number and yields
// ok=false without an error in either mode.
func Parse(token string, mode Mode) (FPS, bool, error) {
	token = strings.TrimSpace(token)
	if !isDigits(token) {
		return 0, false, nil
	}

	v, err := strconv.ParseUint(token, 10, 64)
	if err != nil {
		// Only overflow is possible here; such a value is never in range.
		if mode == Tolerant {
			return 0, false, nil
		}
		return 0, false, outOfRange(token)
	}

	return Validate(v, mode)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

func outOfRange(value string) errors.Error {
	return errors.New().
		WithMessage(errors.ErrOutOfRangeFPS, fmt.Sprintf(
			"FPS value %s is outside the range of [%d, %d] and is not %d (for disabling)!",
			value, Min, Max, Disabled))
}
