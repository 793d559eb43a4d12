package blob

import (
	"errors"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"vidconv/internal/metrics"
)

func stores(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemory() },
		"pebble": func() Store {
			p, err := OpenPebble("blobs", WithFS(vfs.NewMem()))
			if err != nil {
				t.Fatalf("OpenPebble: %v", err)
			}
			return p
		},
	}
}

func TestStore_PutGetRelease(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			b, err := s.Put("clip.webm", "video/webm", []byte("payload"))
			if err != nil {
				t.Fatalf("Put: %v", err)
			}
			if b.ID == "" || b.Size != 7 || b.Name != "clip.webm" || b.ContentType != "video/webm" {
				t.Errorf("Put returned %+v", b)
			}

			got, data, err := s.Get(b.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(data) != "payload" || got.ID != b.ID {
				t.Errorf("Get = %+v, %q", got, data)
			}

			if err := s.Release(b.ID); err != nil {
				t.Fatalf("Release: %v", err)
			}
			if _, _, err := s.Get(b.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after release err = %v, want ErrNotFound", err)
			}
			if err := s.Release(b.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("double release err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_PutCopiesInput(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			in := []byte("abc")
			b, err := s.Put("a.mp3", "audio/mpeg", in)
			if err != nil {
				t.Fatal(err)
			}
			in[0] = 'x'
			_, data, err := s.Get(b.ID)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != "abc" {
				t.Errorf("stored data aliased caller buffer: %q", data)
			}
		})
	}
}

func TestStore_ListAndClose(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			liveBefore := testutil.ToFloat64(metrics.LiveBlobs)

			for _, n := range []string{"a.mp4", "b.mp4", "c.mp4"} {
				if _, err := s.Put(n, "video/mp4", []byte(n)); err != nil {
					t.Fatal(err)
				}
			}
			if got := len(s.List()); got != 3 {
				t.Fatalf("List len = %d, want 3", got)
			}
			if d := testutil.ToFloat64(metrics.LiveBlobs) - liveBefore; d != 3 {
				t.Errorf("live gauge moved by %v, want 3", d)
			}

			if err := s.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if d := testutil.ToFloat64(metrics.LiveBlobs) - liveBefore; d != 0 {
				t.Errorf("live gauge after close off by %v", d)
			}
			if _, err := s.Put("d.mp4", "video/mp4", nil); !errors.Is(err, ErrClosed) {
				t.Errorf("Put after close err = %v, want ErrClosed", err)
			}
		})
	}
}

func TestStore_UnknownID(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()
			if _, _, err := s.Get("does-not-exist"); !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestPebble_CloseRemovesDir(t *testing.T) {
	fs := vfs.NewMem()
	p, err := OpenPebble("scratch", WithFS(fs))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Put("a", "video/mp4", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Stat("scratch"); err == nil {
		t.Error("pebble directory still present after Close")
	}
}
