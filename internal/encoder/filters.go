package encoder

import (
	"fmt"

	"vidconv/internal/model"
)

func rotationFilters(r model.Rotation) []string {
	switch r {
	case model.Rotate90:
		return []string{"transpose=1"}
	case model.Rotate180:
		return []string{"transpose=1", "transpose=1"}
	case model.Rotate270:
		return []string{"transpose=2"}
	case model.RotateHFlip:
		return []string{"hflip"}
	case model.RotateVFlip:
		return []string{"vflip"}
	}
	return nil
}

// speedFilter rescales presentation timestamps by the reciprocal of speed.
func speedFilter(speed float64) string {
	return fmt.Sprintf("setpts=%.4f*PTS", 1/speed)
}
