package engine

import (
	"strconv"
	"strings"
	"time"
)

// progressState accumulates ffmpeg -progress key=value lines. ffmpeg flushes
// one block per interval terminated by a "progress=" line.
type progressState struct {
	outTimeUs int64
	speed     string
	duration  time.Duration
}

// updateFromLine records line and returns an event when a block completes.
func (ps *progressState) updateFromLine(line string) (Progress, bool) {
	key, val, ok := strings.Cut(line, "=")
	if !ok {
		return Progress{}, false
	}
	key = strings.TrimSpace(key)
	val = strings.TrimSpace(val)

	switch key {
	case "out_time_us", "out_time_ms":
		// both are microseconds
		if v, err := strconv.ParseInt(val, 10, 64); err == nil && v >= 0 {
			ps.outTimeUs = v
		}
	case "speed":
		ps.speed = val
	case "progress":
		done := val == "end"
		p := Progress{
			Ratio: -1,
			Time:  time.Duration(ps.outTimeUs) * time.Microsecond,
			Speed: ps.speed,
			Done:  done,
		}
		if ps.duration > 0 {
			p.Ratio = float64(p.Time) / float64(ps.duration)
		}
		if done {
			p.Ratio = 1
		}
		return p, true
	}
	return Progress{}, false
}
