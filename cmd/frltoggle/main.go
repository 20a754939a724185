// Copyright © 2024 Mutker Telag <witty.text5011@fastmail.com>
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"codeberg.org/mutker/frltoggle/internal/app"
)

func main() {
	os.Exit(app.New(executable()).Run(os.Args[1:]))
}

// executable returns the path of the running binary, falling back to the
// invoked name when the OS cannot resolve it.
func executable() string {
	if path, err := os.Executable(); err == nil {
		return path
	}

	return os.Args[0]
}
