//go:build !windows

package main

import (
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// quietInterrupt turns off ECHOCTL so Ctrl+C does not leave "^C" in the middle of the
// transcript. returns the restore function, a no-op when stdin is not a terminal.
func quietInterrupt() func() {
	fd := int(os.Stdin.Fd()) //nolint:gosec // fd fits int
	if !term.IsTerminal(fd) {
		return func() {}
	}

	termios, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return func() {}
	}
	saved := *termios

	termios.Lflag &^= unix.ECHOCTL
	if unix.IoctlSetTermios(fd, ioctlWriteTermios, termios) != nil {
		return func() {}
	}
	return func() { _ = unix.IoctlSetTermios(fd, ioctlWriteTermios, &saved) }
}
