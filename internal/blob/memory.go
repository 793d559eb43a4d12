package blob

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vidconv/internal/metrics"
)

// Memory keeps blobs on the heap.
type Memory struct {
	mu     sync.Mutex
	blobs  map[string]memEntry
	closed bool
}

type memEntry struct {
	meta Blob
	data []byte
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: map[string]memEntry{}}
}

func (m *Memory) Put(name, contentType string, data []byte) (Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Blob{}, ErrClosed
	}
	b := Blob{
		ID:          uuid.NewString(),
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Created:     time.Now().UTC(),
	}
	m.blobs[b.ID] = memEntry{meta: b, data: slices.Clone(data)}
	metrics.LiveBlobs.Inc()
	metrics.LiveBlobBytes.Add(float64(b.Size))
	return b, nil
}

func (m *Memory) Get(id string) (Blob, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.blobs[id]
	if !ok {
		return Blob{}, nil, ErrNotFound
	}
	return e.meta, e.data, nil
}

func (m *Memory) Release(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.blobs[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.blobs, id)
	metrics.LiveBlobs.Dec()
	metrics.LiveBlobBytes.Sub(float64(e.meta.Size))
	return nil
}

func (m *Memory) List() []Blob {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Blob, 0, len(m.blobs))
	for _, e := range m.blobs {
		out = append(out, e.meta)
	}
	sortBlobs(out)
	return out
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.blobs {
		delete(m.blobs, id)
		metrics.LiveBlobs.Dec()
		metrics.LiveBlobBytes.Sub(float64(e.meta.Size))
	}
	m.closed = true
	return nil
}

func sortBlobs(bs []Blob) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].Created.Equal(bs[j].Created) {
			return bs[i].ID < bs[j].ID
		}
		return bs[i].Created.Before(bs[j].Created)
	})
}
