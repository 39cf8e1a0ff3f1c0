//go:build !linux

package sysstate

// batteryPercent has no reader on this platform.
func batteryPercent() int {
	return -1
}
