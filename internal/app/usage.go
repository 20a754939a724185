package app

import (
	"fmt"
	"io"

	"codeberg.org/mutker/frltoggle/internal/fps"
)

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `
  Usage: frltoggle [--config FILE] [--log-level LEVEL] COMMAND

  Examples:
    frltoggle status                          prints the current FRL value. Value %[1]d means it's disabled.
    frltoggle %[1]d                               turns off the framerate limiter.
    frltoggle 60                              sets the FPS limit to 60 (allowed values are [%[2]d, %[3]d]).
    frltoggle 60 --save-previous              sets the FPS limit to 60 and saves the previous value to a file.
    frltoggle 60 --save-previous-or-reuse     sets the FPS limit to 60 and saves the previous value to a file.
                                              If the file already exists, its value will be validated and reused instead.
                                              This is useful in case the system has crashed and we want to reuse the value from before the crash.
    frltoggle load-file                       loads the value from file (e.g., saved using "--save-previous") and uses it to set FRL.
                                              File is removed afterwards if no errors occur.

`, uint32(fps.Disabled), uint32(fps.Min), uint32(fps.Max))
}
