// Package deps locates the external binaries the engine drives.
package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ErrNotFound is wrapped when a required binary cannot be located.
var ErrNotFound = errors.New("binary not found")

// FindFFmpeg returns the path to ffmpeg. If customPath is non-empty, it tries
// that path or looks it up in PATH.
func FindFFmpeg(customPath string) (string, error) {
	return find("ffmpeg", customPath)
}

// FindFFprobe returns the path to ffprobe, used for duration probing.
func FindFFprobe(customPath string) (string, error) {
	return find("ffprobe", customPath)
}

func find(name, customPath string) (string, error) {
	if customPath != "" {
		if fi, err := os.Stat(customPath); err == nil && !fi.IsDir() {
			return customPath, nil
		}
		if p, err := exec.LookPath(customPath); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("could not find %s at %q: %w", name, customPath, ErrNotFound)
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("could not find %s in PATH, please install ffmpeg: %w", name, ErrNotFound)
}
