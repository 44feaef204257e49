//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package diagnostics

import (
	"os"

	"golang.org/x/sys/unix"
)

func terminalWidth(f *os.File) (int, bool) {
	if f == nil {
		return 0, false
	}
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return 0, false
	}
	return int(ws.Col), true
}
