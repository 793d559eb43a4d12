package encoder

import (
	"fmt"
	"math"
	"strings"
)

// atempo only accepts multipliers within [tempoFloor, tempoCeiling].
const (
	tempoFloor   = 0.5
	tempoCeiling = 100.0
)

// BuildTempoChain decomposes speed into a comma-joined chain of atempo stages
// whose product equals speed. It returns ok=false when no filter is needed
// (speed == 1) or speed is not a finite positive number.
func BuildTempoChain(speed float64) (string, bool) {
	if speed == 1 || speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return "", false
	}

	var stages []string
	remaining := speed
	for remaining < tempoFloor {
		stages = append(stages, atempo(tempoFloor))
		remaining /= tempoFloor
	}
	for remaining > tempoCeiling {
		stages = append(stages, atempo(tempoCeiling))
		remaining /= tempoCeiling
	}
	stages = append(stages, atempo(remaining))
	return strings.Join(stages, ","), true
}

func atempo(v float64) string {
	return fmt.Sprintf("atempo=%.4f", v)
}
