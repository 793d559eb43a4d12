// Package format renders sizes and rates for terminal and HTTP output.
package format

import (
	"strconv"
	"time"
)

var byteUnits = []string{"KB", "MB", "GB", "TB", "PB"}

// HumanizeBytes renders a byte count with a binary unit, e.g. "1.5 MB".
func HumanizeBytes(b int64) string {
	const unit = 1024
	if b < 0 {
		return "-" + HumanizeBytes(-b)
	}
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	v := float64(b) / unit
	exp := 0
	for v >= unit && exp < len(byteUnits)-1 {
		v /= unit
		exp++
	}
	return strconv.FormatFloat(v, 'f', 1, 64) + " " + byteUnits[exp]
}

// Elapsed renders d rounded to a tenth of a second, e.g. "3.2s".
func Elapsed(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}
