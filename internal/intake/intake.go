// Package intake gathers the media files a batch will convert, filtering out
// anything whose MIME type is not video/* or audio/*.
package intake

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoMedia is returned when no eligible media file was selected.
var ErrNoMedia = errors.New("no media files selected")

// File is one selected input. It is backed either by a path on disk or by
// bytes received in memory (HTTP uploads).
type File struct {
	Name        string `json:"name"`
	Path        string `json:"path,omitempty"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`

	data []byte
}

// FromBytes wraps uploaded bytes as a File.
func FromBytes(name, contentType string, data []byte) File {
	return File{Name: name, Size: int64(len(data)), ContentType: contentType, data: data}
}

// Bytes returns the file content.
func (f File) Bytes() ([]byte, error) {
	if f.data != nil || f.Path == "" {
		return f.data, nil
	}
	return os.ReadFile(f.Path)
}

// mediaTypes covers containers whose registered type is missing or wrong in
// common mime.types tables (".ts" is often Qt Linguist).
var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".flv":  "video/x-flv",
	".wmv":  "video/x-ms-wmv",
	".ts":   "video/mp2t",
	".mts":  "video/mp2t",
	".m2ts": "video/mp2t",
	".3gp":  "video/3gpp",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".ogv":  "video/ogg",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".aac":  "audio/aac",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".wma":  "audio/x-ms-wma",
}

// IsMedia reports whether contentType is a video or audio type.
func IsMedia(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return strings.HasPrefix(ct, "video/") || strings.HasPrefix(ct, "audio/")
}

// DetectContentType determines the MIME type of a file from its name, falling
// back to sniffing head (up to 512 bytes of content) when the extension is
// unknown.
func DetectContentType(name string, head []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := mediaTypes[ext]; ok {
		return ct
	}
	if ext != "" {
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
	}
	if len(head) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(head)
}

// Collect expands paths into media files. Directories contribute their regular,
// non-hidden files (descending into subdirectories when recursive is set);
// explicitly named files are checked the same way. Non-media files are skipped.
func Collect(paths []string, recursive bool) ([]File, error) {
	var out []File
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !fi.IsDir() {
			if f, ok, err := inspect(p, fi); err != nil {
				return nil, err
			} else if ok {
				out = append(out, f)
			}
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && (!recursive || hidden(d.Name())) {
					return filepath.SkipDir
				}
				return nil
			}
			if hidden(d.Name()) || !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			f, ok, err := inspect(path, info)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, f)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", p, err)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoMedia
	}
	return out, nil
}

func inspect(path string, fi fs.FileInfo) (File, bool, error) {
	var head []byte
	if _, known := mediaTypes[strings.ToLower(filepath.Ext(path))]; !known {
		h, err := readHead(path)
		if err != nil {
			return File{}, false, err
		}
		head = h
	}
	ct := DetectContentType(path, head)
	if !IsMedia(ct) {
		return File{}, false, nil
	}
	return File{
		Name:        filepath.Base(path),
		Path:        path,
		Size:        fi.Size(),
		ContentType: ct,
	}, true, nil
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
