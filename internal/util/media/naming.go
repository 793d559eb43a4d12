// Package media derives file names for staged and converted media.
package media

import (
	"path/filepath"
	"strconv"
	"strings"

	"vidconv/internal/util"
)

// OutputName replaces the extension of src's base name with format.
func OutputName(src, format string) string {
	base := filepath.Base(src)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "output"
	}
	return base + "." + strings.TrimPrefix(strings.ToLower(format), ".")
}

// SourceExt returns the lowercase extension of name without the dot, or "" if
// there is none.
func SourceExt(name string) string {
	ext := filepath.Ext(filepath.Base(name))
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// InputStagingName is the engine scratch name for the i-th input file.
func InputStagingName(i int, src string) string {
	name := "input_" + strconv.Itoa(i)
	if ext := SourceExt(src); ext != "" {
		name += "." + util.SanitizeFilename(ext)
	}
	return name
}

// OutputStagingName is the engine scratch name for the i-th output file.
func OutputStagingName(i int, format string) string {
	return "output_" + strconv.Itoa(i) + "." + strings.TrimPrefix(strings.ToLower(format), ".")
}
