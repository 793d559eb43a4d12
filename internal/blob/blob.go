// Package blob holds converted outputs until they are saved or discarded.
// Every blob is an owned resource: it stays alive until Release or Close.
package blob

import (
	"errors"
	"time"
)

// ErrNotFound is returned for unknown or already released IDs.
var ErrNotFound = errors.New("blob not found")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("blob store closed")

// Blob describes stored bytes.
type Blob struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Created     time.Time `json:"created"`
}

// Store keeps blobs addressable by ID.
type Store interface {
	Put(name, contentType string, data []byte) (Blob, error)
	// Get returns the blob and its bytes. Callers must not modify the bytes.
	Get(id string) (Blob, []byte, error)
	Release(id string) error
	List() []Blob
	// Close releases every remaining blob.
	Close() error
}
