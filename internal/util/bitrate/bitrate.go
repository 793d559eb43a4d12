// Package bitrate parses ffmpeg-style rate strings.
package bitrate

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse converts a rate string as accepted by ffmpeg ("128k", "2.5M", "192000")
// into bits per second.
func Parse(s string) (int64, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return 0, fmt.Errorf("empty bitrate")
	}
	mult := 1.0
	switch v[len(v)-1] {
	case 'k', 'K':
		mult = 1e3
		v = v[:len(v)-1]
	case 'm', 'M':
		mult = 1e6
		v = v[:len(v)-1]
	case 'g', 'G':
		mult = 1e9
		v = v[:len(v)-1]
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid bitrate %q", s)
	}
	return int64(f * mult), nil
}
