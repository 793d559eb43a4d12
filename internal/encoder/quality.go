package encoder

import (
	"strconv"

	"vidconv/internal/model"
)

type family int

const (
	familyNone family = iota
	familyH26x
	familyVPx
	familyMPEG4
	familyMPEG12
)

var codecFamilies = map[string]family{
	"libx264":    familyH26x,
	"libx264rgb": familyH26x,
	"libx265":    familyH26x,
	"libvpx-vp9": familyVPx,
	"libvpx":     familyVPx,
	"libaom-av1": familyVPx,
	"mpeg4":      familyMPEG4,
	"libxvid":    familyMPEG4,
	"msmpeg4":    familyMPEG4,
	"mpeg2video": familyMPEG12,
	"mpeg1video": familyMPEG12,
}

var (
	h26xCRF = map[model.Quality]int{
		model.QualityHighest: 15,
		model.QualityHigh:    18,
		model.QualityMedium:  23,
		model.QualityLow:     28,
		model.QualityLowest:  35,
	}
	vpxCRF = map[model.Quality]int{
		model.QualityHighest: 15,
		model.QualityHigh:    24,
		model.QualityMedium:  31,
		model.QualityLow:     40,
		model.QualityLowest:  50,
	}
	// shared by both quantizer families
	quantizer = map[model.Quality]int{
		model.QualityHighest: 2,
		model.QualityHigh:    4,
		model.QualityMedium:  6,
		model.QualityLow:     9,
		model.QualityLowest:  13,
	}
)

func familyOf(codec string) family {
	return codecFamilies[codec]
}

// qualityArgs returns the quality flag and value for codec, or nil when the
// codec has no tier mapping. Unknown tiers fall back to medium.
func qualityArgs(codec string, q model.Quality) []string {
	var (
		flag  string
		table map[model.Quality]int
	)
	switch familyOf(codec) {
	case familyH26x:
		flag, table = "-crf", h26xCRF
	case familyVPx:
		flag, table = "-crf", vpxCRF
	case familyMPEG4, familyMPEG12:
		flag, table = "-q:v", quantizer
	default:
		return nil
	}
	v, ok := table[q]
	if !ok {
		v = table[model.QualityMedium]
	}
	return []string{flag, strconv.Itoa(v)}
}

// presetArgs maps an encoder preset onto the flag the codec family understands.
func presetArgs(codec, preset string) []string {
	if preset == "" {
		return nil
	}
	switch familyOf(codec) {
	case familyH26x:
		return []string{"-preset", preset}
	case familyVPx:
		if codec == "libaom-av1" {
			return []string{"-cpu-used", preset}
		}
		return []string{"-deadline", preset}
	}
	return nil
}
