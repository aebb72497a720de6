// Package storage provides the filesystem abstraction behind catalog image
// uploads.
//
// Two drivers are available:
//   - "local"  — local filesystem (default)
//   - "s3"     — S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
package storage

import (
	"fmt"
	"io"

	"github.com/shashiranjanraj/brewhaus/config"
)

// Disk is the filesystem driver interface.
type Disk interface {
	// Put writes content to path, creating parent directories as needed.
	Put(path string, content []byte) error

	// PutStream writes from r to path.
	PutStream(path string, r io.Reader) error

	// Get returns the full content of the file at path.
	Get(path string) ([]byte, error)

	// Exists reports whether a file exists at path.
	Exists(path string) bool

	// URL returns the public URL for path.
	URL(path string) string

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(path string) error
}

// Manager holds the configured disks. Built once at startup.
type Manager struct {
	disks       map[string]Disk
	defaultDisk string
}

// NewManager boots the local disk and, when a bucket is configured, the S3
// disk.
func NewManager(cfg config.Config) (*Manager, error) {
	m := &Manager{
		disks:       map[string]Disk{"local": newLocalDisk(cfg)},
		defaultDisk: cfg.StorageDisk,
	}

	if cfg.S3Bucket != "" {
		d, err := newS3Disk(cfg)
		if err != nil {
			return nil, err
		}
		m.disks["s3"] = d
	}

	if _, ok := m.disks[m.defaultDisk]; !ok {
		return nil, fmt.Errorf("storage: default disk %q is not configured", m.defaultDisk)
	}
	return m, nil
}

// Use returns the named disk, or the default when name is empty.
func (m *Manager) Use(name string) (Disk, error) {
	if name == "" {
		name = m.defaultDisk
	}
	d, ok := m.disks[name]
	if !ok {
		return nil, fmt.Errorf("storage: disk %q is not configured", name)
	}
	return d, nil
}

// Default returns the default disk.
func (m *Manager) Default() Disk {
	d, _ := m.Use("")
	return d
}
