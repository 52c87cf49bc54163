//go:build !darwin && !freebsd && !openbsd && !netbsd && !dragonfly && !windows

package main

import "golang.org/x/sys/unix"

// termios ioctl requests of linux and other unix kernels.
const (
	ioctlReadTermios  = unix.TCGETS
	ioctlWriteTermios = unix.TCSETS
)
