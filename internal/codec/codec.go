// Package codec holds the per-container codec defaults used to resolve "auto"
// codec selections and to classify audio-only output formats.
package codec

import (
	"sort"
	"strings"
)

// Kind identifies a stream type.
type Kind int

const (
	KindVideo Kind = iota
	KindAudio
)

func (k Kind) String() string {
	if k == KindAudio {
		return "audio"
	}
	return "video"
}

// Sentinel codec values understood by the argument builder.
const (
	Auto = "auto"
	Copy = "copy"
	None = "none"
)

// Fallbacks for formats missing from the table.
const (
	FallbackVideo = "libx264"
	FallbackAudio = "aac"
)

// Defaults is the conventional codec pair for a container. An empty field means
// the container carries no stream of that kind.
type Defaults struct {
	Video string
	Audio string
}

var table = map[string]Defaults{
	"mp4":  {Video: "libx264", Audio: "aac"},
	"m4v":  {Video: "libx264", Audio: "aac"},
	"mov":  {Video: "libx264", Audio: "aac"},
	"mkv":  {Video: "libx264", Audio: "aac"},
	"flv":  {Video: "libx264", Audio: "aac"},
	"ts":   {Video: "libx264", Audio: "aac"},
	"webm": {Video: "libvpx-vp9", Audio: "libopus"},
	"avi":  {Video: "mpeg4", Audio: "libmp3lame"},
	"ogv":  {Video: "libtheora", Audio: "libvorbis"},
	"wmv":  {Video: "wmv2", Audio: "wmav2"},
	"3gp":  {Video: "mpeg4", Audio: "aac"},
	"mpeg": {Video: "mpeg2video", Audio: "mp2"},
	"gif":  {Video: "gif"},

	// audio-only containers
	"mp3":  {Audio: "libmp3lame"},
	"aac":  {Audio: "aac"},
	"m4a":  {Audio: "aac"},
	"wav":  {Audio: "pcm_s16le"},
	"flac": {Audio: "flac"},
	"ogg":  {Audio: "libvorbis"},
	"opus": {Audio: "libopus"},
	"wma":  {Audio: "wmav2"},
}

var audioOnly = map[string]bool{
	"mp3": true, "aac": true, "m4a": true, "wav": true,
	"flac": true, "ogg": true, "opus": true, "wma": true,
}

// MIME overrides where "<video|audio>/<format>" is not the registered type.
var contentTypes = map[string]string{
	"mp3": "audio/mpeg",
	"m4a": "audio/mp4",
	"wav": "audio/wav",
	"wma": "audio/x-ms-wma",
	"mkv": "video/x-matroska",
	"mov": "video/quicktime",
	"avi": "video/x-msvideo",
	"flv": "video/x-flv",
	"wmv": "video/x-ms-wmv",
	"ts":  "video/mp2t",
	"3gp": "video/3gpp",
	"m4v": "video/x-m4v",
	"ogv": "video/ogg",
	"gif": "image/gif",
}

// Resolve returns the codec to use for a stream of the given kind. Explicit
// requests are returned unchanged; "auto" (or empty) is looked up in the table.
// ok is false when the format carries no stream of that kind.
func Resolve(kind Kind, requested, format string) (string, bool) {
	if requested != "" && requested != Auto {
		return requested, true
	}
	d, found := table[normalize(format)]
	if !found {
		if kind == KindAudio {
			return FallbackAudio, true
		}
		return FallbackVideo, true
	}
	c := d.Video
	if kind == KindAudio {
		c = d.Audio
	}
	return c, c != ""
}

// Lookup returns the table entry for format.
func Lookup(format string) (Defaults, bool) {
	d, ok := table[normalize(format)]
	return d, ok
}

// IsAudioOnly reports whether format is an audio-only container.
func IsAudioOnly(format string) bool {
	return audioOnly[normalize(format)]
}

// Known reports whether format is present in the table.
func Known(format string) bool {
	_, ok := table[normalize(format)]
	return ok
}

// ContentType derives the MIME type of an output file.
func ContentType(format string) string {
	f := normalize(format)
	if ct, ok := contentTypes[f]; ok {
		return ct
	}
	if audioOnly[f] {
		return "audio/" + f
	}
	return "video/" + f
}

// Formats returns all known formats in sorted order.
func Formats() []string {
	out := make([]string, 0, len(table))
	for f := range table {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func normalize(format string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
}
