package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"vidconv/internal/blob"
	"vidconv/internal/engine"
	"vidconv/internal/engine/enginetest"
	"vidconv/internal/intake"
	"vidconv/internal/model"
)

func media(names ...string) []intake.File {
	out := make([]intake.File, 0, len(names))
	for _, n := range names {
		out = append(out, intake.FromBytes(n, "video/mp4", []byte("data:"+n)))
	}
	return out
}

func newSession(t *testing.T) (*Session, *enginetest.Fake) {
	t.Helper()
	fake := enginetest.New()
	s := New(WithEngine(fake, engine.Config{}))
	t.Cleanup(func() { _ = s.Close() })
	return s, fake
}

func TestAddFiles_FiltersNonMedia(t *testing.T) {
	s, _ := newSession(t)
	files := append(media("a.mp4"), intake.FromBytes("notes.txt", "text/plain", []byte("x")))

	out, err := s.Dispatch(context.Background(), AddFiles{Files: files})
	if err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	if len(out.Files) != 1 || out.Files[0].Name != "a.mp4" {
		t.Fatalf("files = %+v", out.Files)
	}
	if out.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", out.Skipped)
	}

	_, err = s.Dispatch(context.Background(), AddFiles{Files: []intake.File{intake.FromBytes("x.txt", "text/plain", nil)}})
	if !errors.Is(err, intake.ErrNoMedia) {
		t.Fatalf("err = %v, want ErrNoMedia", err)
	}
	if got := len(s.Files()); got != 1 {
		t.Errorf("selection changed on rejected add: %d files", got)
	}
}

func TestRemoveAndClear(t *testing.T) {
	s, _ := newSession(t)
	ctx := context.Background()
	if _, err := s.Dispatch(ctx, AddFiles{Files: media("a.mp4", "b.mp4", "c.mp4")}); err != nil {
		t.Fatal(err)
	}

	out, err := s.Dispatch(ctx, RemoveFile{Index: 1})
	if err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	var names []string
	for _, f := range out.Files {
		names = append(names, f.Name)
	}
	if !slices.Equal(names, []string{"a.mp4", "c.mp4"}) {
		t.Errorf("files = %v", names)
	}

	for _, idx := range []int{-1, 2} {
		if _, err := s.Dispatch(ctx, RemoveFile{Index: idx}); !errors.Is(err, ErrIndex) {
			t.Errorf("RemoveFile(%d) err = %v, want ErrIndex", idx, err)
		}
	}

	out, err = s.Dispatch(ctx, ClearFiles{})
	if err != nil || len(out.Files) != 0 {
		t.Fatalf("ClearFiles = %+v, %v", out.Files, err)
	}
}

func TestConvert_NoFiles(t *testing.T) {
	s, fake := newSession(t)
	_, err := s.Dispatch(context.Background(), Convert{Settings: model.DefaultSettings()})
	if !errors.Is(err, ErrNoFiles) {
		t.Fatalf("err = %v, want ErrNoFiles", err)
	}
	if fake.Loads != 0 {
		t.Errorf("engine loaded %d times with nothing to do", fake.Loads)
	}
}

func TestConvert_InvalidSettings(t *testing.T) {
	s, _ := newSession(t)
	ctx := context.Background()
	if _, err := s.Dispatch(ctx, AddFiles{Files: media("a.mp4")}); err != nil {
		t.Fatal(err)
	}
	bad := model.DefaultSettings()
	bad.Speed = -1
	if _, err := s.Dispatch(ctx, Convert{Settings: bad}); !errors.Is(err, model.ErrInvalidSettings) {
		t.Fatalf("err = %v, want ErrInvalidSettings", err)
	}
}

func TestConvert_LoadsEngineOnceAndRetries(t *testing.T) {
	s, fake := newSession(t)
	ctx := context.Background()
	if _, err := s.Dispatch(ctx, AddFiles{Files: media("a.mp4")}); err != nil {
		t.Fatal(err)
	}

	fake.LoadErr = errors.New("ffmpeg: executable file not found")
	if _, err := s.Dispatch(ctx, Convert{Settings: model.DefaultSettings()}); !errors.Is(err, ErrEngineLoad) {
		t.Fatalf("err = %v, want ErrEngineLoad", err)
	}
	if len(fake.Execs) != 0 {
		t.Fatalf("exec ran after failed load")
	}

	fake.LoadErr = nil
	for i := 0; i < 2; i++ {
		if _, err := s.Dispatch(ctx, Convert{Settings: model.DefaultSettings()}); err != nil {
			t.Fatalf("Convert #%d: %v", i, err)
		}
	}
	if fake.Loads != 2 {
		t.Errorf("loads = %d, want 2 (one failure, one success)", fake.Loads)
	}
}

func TestConvert_ReplacesResultsKeepsFiles(t *testing.T) {
	store := blob.NewMemory()
	fake := enginetest.New()
	s := New(WithEngine(fake, engine.Config{}), WithStore(store))
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Dispatch(ctx, AddFiles{Files: media("a.mp4", "b.mp4")}); err != nil {
		t.Fatal(err)
	}
	first, err := s.Dispatch(ctx, Convert{Settings: model.DefaultSettings()})
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Results) != 2 || first.JobID == "" {
		t.Fatalf("first batch = %+v", first)
	}

	webm := model.DefaultSettings()
	webm.Format = "webm"
	second, err := s.Dispatch(ctx, Convert{Settings: webm})
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Files) != 2 {
		t.Errorf("files not kept across batches: %d", len(second.Files))
	}
	if second.JobID == first.JobID {
		t.Errorf("job id reused")
	}
	for _, r := range first.Results {
		if _, _, err := store.Get(r.Locator); !errors.Is(err, blob.ErrNotFound) {
			t.Errorf("old result %s still live: %v", r.Locator, err)
		}
	}
	if got := len(store.List()); got != 2 {
		t.Errorf("live blobs = %d, want 2", got)
	}
	if second.Results[0].Name != "a.webm" {
		t.Errorf("name = %q", second.Results[0].Name)
	}
}

func TestSaveAndDiscard(t *testing.T) {
	s, _ := newSession(t)
	ctx := context.Background()
	if _, err := s.Dispatch(ctx, AddFiles{Files: media("a.mp4", "b.mp4")}); err != nil {
		t.Fatal(err)
	}
	out, err := s.Dispatch(ctx, Convert{Settings: model.DefaultSettings()})
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.mp4"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}
	saved, err := s.Dispatch(ctx, SaveResult{Locator: out.Results[0].Locator, Dir: dir})
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if filepath.Base(saved.SavedPath) != "a (1).mp4" {
		t.Errorf("saved path = %q", saved.SavedPath)
	}
	data, err := os.ReadFile(saved.SavedPath)
	if err != nil || string(data) != "data:a.mp4" {
		t.Errorf("saved content = %q, %v", data, err)
	}
	if len(saved.Results) != 1 {
		t.Errorf("saved result not released: %+v", saved.Results)
	}

	loc := out.Results[1].Locator
	if _, err := s.Dispatch(ctx, DiscardResult{Locator: loc}); err != nil {
		t.Fatalf("DiscardResult: %v", err)
	}
	if _, _, err := s.Blob(loc); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("discarded blob still live: %v", err)
	}
	if _, err := s.Dispatch(ctx, DiscardResult{Locator: loc}); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("second discard err = %v, want ErrNotFound", err)
	}
}

func TestConvert_Busy(t *testing.T) {
	s, fake := newSession(t)
	ctx := context.Background()
	if _, err := s.Dispatch(ctx, AddFiles{Files: media("a.mp4")}); err != nil {
		t.Fatal(err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	fake.ExecErr = func([]string) error {
		close(started)
		<-release
		return nil
	}
	done := make(chan error, 1)
	go func() {
		_, err := s.Dispatch(ctx, Convert{Settings: model.DefaultSettings()})
		done <- err
	}()
	<-started

	if _, err := s.Dispatch(ctx, Convert{Settings: model.DefaultSettings()}); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent Convert err = %v, want ErrBusy", err)
	}
	if _, err := s.Dispatch(ctx, ClearFiles{}); !errors.Is(err, ErrBusy) {
		t.Errorf("ClearFiles during batch err = %v, want ErrBusy", err)
	}
	if err := s.Close(); !errors.Is(err, ErrBusy) {
		t.Errorf("Close during batch err = %v, want ErrBusy", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("batch: %v", err)
	}
	if got := len(s.Results()); got != 1 {
		t.Errorf("results after batch = %d, want 1", got)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close after batch: %v", err)
	}
}

func TestClose(t *testing.T) {
	store := blob.NewMemory()
	fake := enginetest.New()
	s := New(WithEngine(fake, engine.Config{}), WithStore(store))
	ctx := context.Background()
	if _, err := s.Dispatch(ctx, AddFiles{Files: media("a.mp4")}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Dispatch(ctx, Convert{Settings: model.DefaultSettings()}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !fake.Closed {
		t.Error("engine not closed")
	}
	if got := len(store.List()); got != 0 {
		t.Errorf("live blobs after close = %d", got)
	}
	if _, err := s.Dispatch(ctx, AddFiles{Files: media("b.mp4")}); !errors.Is(err, ErrClosed) {
		t.Errorf("AddFiles after close err = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
