package blob

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/google/uuid"

	"vidconv/internal/metrics"
)

const (
	metaPrefix = "meta/"
	dataPrefix = "data/"
)

// Pebble spills blobs to an on-disk pebble database. The database is scratch
// space: Close deletes it.
type Pebble struct {
	mu  sync.Mutex
	db  *pebble.DB
	fs  vfs.FS
	dir string
}

var _ Store = (*Pebble)(nil)

// PebbleOption configures OpenPebble.
type PebbleOption func(*pebble.Options)

// WithFS sets the filesystem pebble writes to (vfs.NewMem() in tests).
func WithFS(fs vfs.FS) PebbleOption {
	return func(o *pebble.Options) {
		o.FS = fs
	}
}

// OpenPebble opens a fresh store in dir.
func OpenPebble(dir string, opts ...PebbleOption) (*Pebble, error) {
	o := &pebble.Options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.FS == nil {
		o.FS = vfs.Default
	}
	db, err := pebble.Open(dir, o)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}
	return &Pebble{db: db, fs: o.FS, dir: dir}, nil
}

func (p *Pebble) Put(name, contentType string, data []byte) (Blob, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return Blob{}, ErrClosed
	}
	b := Blob{
		ID:          uuid.NewString(),
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Created:     time.Now().UTC(),
	}
	meta, err := json.Marshal(b)
	if err != nil {
		return Blob{}, fmt.Errorf("marshal blob meta: %w", err)
	}

	batch := p.db.NewBatch()
	defer batch.Close()
	if err := batch.Set([]byte(dataPrefix+b.ID), data, nil); err != nil {
		return Blob{}, err
	}
	if err := batch.Set([]byte(metaPrefix+b.ID), meta, nil); err != nil {
		return Blob{}, err
	}
	// scratch data, no fsync needed
	if err := batch.Commit(pebble.NoSync); err != nil {
		return Blob{}, fmt.Errorf("store blob: %w", err)
	}
	metrics.LiveBlobs.Inc()
	metrics.LiveBlobBytes.Add(float64(b.Size))
	return b, nil
}

func (p *Pebble) Get(id string) (Blob, []byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return Blob{}, nil, ErrClosed
	}
	b, err := p.meta(id)
	if err != nil {
		return Blob{}, nil, err
	}
	value, closer, err := p.db.Get([]byte(dataPrefix + id))
	if errors.Is(err, pebble.ErrNotFound) {
		return Blob{}, nil, ErrNotFound
	}
	if err != nil {
		return Blob{}, nil, err
	}
	// value is only valid until closer.Close
	data := make([]byte, len(value))
	copy(data, value)
	closer.Close()
	return b, data, nil
}

func (p *Pebble) meta(id string) (Blob, error) {
	value, closer, err := p.db.Get([]byte(metaPrefix + id))
	if errors.Is(err, pebble.ErrNotFound) {
		return Blob{}, ErrNotFound
	}
	if err != nil {
		return Blob{}, err
	}
	defer closer.Close()
	var b Blob
	if err := json.Unmarshal(value, &b); err != nil {
		return Blob{}, fmt.Errorf("unmarshal blob meta: %w", err)
	}
	return b, nil
}

func (p *Pebble) Release(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return ErrClosed
	}
	b, err := p.meta(id)
	if err != nil {
		return err
	}
	return p.remove(b)
}

func (p *Pebble) remove(b Blob) error {
	batch := p.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete([]byte(dataPrefix+b.ID), nil); err != nil {
		return err
	}
	if err := batch.Delete([]byte(metaPrefix+b.ID), nil); err != nil {
		return err
	}
	if err := batch.Commit(pebble.NoSync); err != nil {
		return fmt.Errorf("release blob: %w", err)
	}
	metrics.LiveBlobs.Dec()
	metrics.LiveBlobBytes.Sub(float64(b.Size))
	return nil
}

func (p *Pebble) List() []Blob {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	return p.list()
}

func (p *Pebble) list() []Blob {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(metaPrefix),
		UpperBound: prefixEnd(metaPrefix),
	})
	if err != nil {
		return nil
	}
	defer iter.Close()

	var out []Blob
	for iter.First(); iter.Valid(); iter.Next() {
		var b Blob
		if err := json.Unmarshal(iter.Value(), &b); err != nil {
			continue // skip corrupt records
		}
		out = append(out, b)
	}
	sortBlobs(out)
	return out
}

// Close releases every blob, closes the database and deletes its directory.
func (p *Pebble) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	var errs []error
	for _, b := range p.list() {
		if err := p.remove(b); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, p.db.Close())
	p.db = nil
	errs = append(errs, p.fs.RemoveAll(p.dir))
	return errors.Join(errs...)
}

// prefixEnd returns the smallest key greater than every key with prefix.
func prefixEnd(prefix string) []byte {
	end := []byte(prefix)
	end[len(end)-1]++
	return end
}
