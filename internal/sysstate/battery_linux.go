//go:build linux

package sysstate

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// batteryPercent reads the first battery under /sys/class/power_supply.
// Desktops and containers have none; that reports as -1.
func batteryPercent() int {
	supplies, err := filepath.Glob("/sys/class/power_supply/BAT*")
	if err != nil || len(supplies) == 0 {
		return -1
	}
	data, err := os.ReadFile(filepath.Join(supplies[0], "capacity"))
	if err != nil {
		return -1
	}
	pct, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pct < 0 || pct > 100 {
		return -1
	}
	return pct
}
