//go:build windows

package main

// quietInterrupt does nothing on windows, the console never echoes ^C into output.
func quietInterrupt() func() {
	return func() {}
}
