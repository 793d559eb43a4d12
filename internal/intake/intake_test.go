package intake

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func names(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name string
		file string
		head []byte
		want string
	}{
		{name: "mp4 by extension", file: "a.MP4", want: "video/mp4"},
		{name: "ts is video", file: "stream.ts", want: "video/mp2t"},
		{name: "mp3", file: "song.mp3", want: "audio/mpeg"},
		{name: "webm sniffed", file: "clip", head: []byte("\x1A\x45\xDF\xA3rest"), want: "video/webm"},
		{name: "text sniffed", file: "README", head: []byte("hello world"), want: "text/plain; charset=utf-8"},
		{name: "empty unknown", file: "blob", want: "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectContentType(tt.file, tt.head); got != tt.want {
				t.Errorf("DetectContentType(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

func TestIsMedia(t *testing.T) {
	for ct, want := range map[string]bool{
		"video/mp4":        true,
		"Audio/MPEG":       true,
		"image/gif":        false,
		"text/plain":       false,
		"application/json": false,
		"":                 false,
	} {
		if got := IsMedia(ct); got != want {
			t.Errorf("IsMedia(%q) = %v, want %v", ct, got, want)
		}
	}
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mp4"), []byte("x"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("text"))
	writeFile(t, filepath.Join(dir, "clip"), []byte("\x1A\x45\xDF\xA3webm"))
	writeFile(t, filepath.Join(dir, ".hidden.mp4"), []byte("x"))
	writeFile(t, filepath.Join(dir, "sub", "b.mp3"), []byte("x"))

	tests := []struct {
		name      string
		paths     []string
		recursive bool
		want      []string
	}{
		{name: "flat directory", paths: []string{dir}, want: []string{"a.mp4", "clip"}},
		{name: "recursive directory", paths: []string{dir}, recursive: true, want: []string{"a.mp4", "clip", "b.mp3"}},
		{name: "explicit files keep order", paths: []string{filepath.Join(dir, "sub", "b.mp3"), filepath.Join(dir, "a.mp4")}, want: []string{"b.mp3", "a.mp4"}},
		{name: "non-media explicit file skipped", paths: []string{filepath.Join(dir, "notes.txt"), filepath.Join(dir, "a.mp4")}, want: []string{"a.mp4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := Collect(tt.paths, tt.recursive)
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}
			got := names(files)
			if len(got) != len(tt.want) {
				t.Fatalf("Collect = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Collect = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestCollectNoMedia(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("text"))
	if _, err := Collect([]string{dir}, true); !errors.Is(err, ErrNoMedia) {
		t.Errorf("err = %v, want ErrNoMedia", err)
	}
	if _, err := Collect(nil, false); !errors.Is(err, ErrNoMedia) {
		t.Errorf("nil paths err = %v, want ErrNoMedia", err)
	}
}

func TestCollectMissingPath(t *testing.T) {
	_, err := Collect([]string{filepath.Join(t.TempDir(), "missing.mp4")}, false)
	if err == nil || errors.Is(err, ErrNoMedia) {
		t.Errorf("err = %v, want stat error", err)
	}
}

func TestFileBytes(t *testing.T) {
	mem := FromBytes("up.mp4", "video/mp4", []byte("data"))
	if b, err := mem.Bytes(); err != nil || string(b) != "data" {
		t.Errorf("memory Bytes = %q, %v", b, err)
	}

	path := filepath.Join(t.TempDir(), "disk.mp4")
	writeFile(t, path, []byte("disk"))
	disk := File{Name: "disk.mp4", Path: path}
	if b, err := disk.Bytes(); err != nil || string(b) != "disk" {
		t.Errorf("disk Bytes = %q, %v", b, err)
	}
}
