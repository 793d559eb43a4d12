// Package dirs resolves the per-user directories vidconv reads and writes.
package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "vidconv"

// AppName returns the canonical application name for directory paths.
func AppName() string {
	return appName
}

type kind int

const (
	kindConfig kind = iota
	kindData
	kindCache
)

// xdg lists, per kind, the XDG variable and the fallback under $HOME on Linux.
var xdg = map[kind][2]string{
	kindConfig: {"XDG_CONFIG_HOME", ".config"},
	kindData:   {"XDG_DATA_HOME", filepath.Join(".local", "share")},
	kindCache:  {"XDG_CACHE_HOME", ".cache"},
}

func base(k kind) (string, error) {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		env := xdg[k]
		if v := os.Getenv(env[0]); v != "" {
			return filepath.Join(v, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, env[1], appName), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if k == kindCache {
			return filepath.Join(home, "Library", "Caches", appName), nil
		}
		return filepath.Join(home, "Library", "Application Support", appName), nil
	default:
		if k == kindCache {
			c, err := os.UserCacheDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(c, appName), nil
		}
		c, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(c, appName), nil
	}
}

// ConfigDir holds config.{yaml,toml,json}.
func ConfigDir() (string, error) { return base(kindConfig) }

// DataDir is the parent of the default output directory.
func DataDir() (string, error) { return base(kindData) }

// CacheDir holds engine scratch space and the on-disk blob store.
func CacheDir() (string, error) { return base(kindCache) }

// DefaultOutputDir is where converted files are saved when --out-dir is unset.
func DefaultOutputDir() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "output"), nil
}

// ScratchBaseDir is the parent of per-engine scratch directories.
func ScratchBaseDir() (string, error) {
	c, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(c, "scratch"), nil
}

// BlobDir is the pebble blob store location.
func BlobDir() (string, error) {
	c, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(c, "blobs"), nil
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// EnsureAll creates the config, data and cache directories.
func EnsureAll() error {
	for _, fn := range []func() (string, error){ConfigDir, DataDir, CacheDir} {
		p, err := fn()
		if err != nil {
			continue
		}
		if err := Ensure(p); err != nil {
			return err
		}
	}
	return nil
}
