//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package diagnostics

import "os"

func terminalWidth(*os.File) (int, bool) { return 0, false }
