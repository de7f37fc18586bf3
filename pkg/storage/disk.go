// Package storage archives files on a local directory or an S3-compatible
// bucket. Price lists are kept here after every successful import.
//
//	storage.Connect()
//	err := storage.Default().Put(ctx, "pricelists/3/20240101T030000Z-….yaml", data)
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// Disk is the driver interface.
type Disk interface {
	// Put writes content to path, replacing any existing object.
	Put(ctx context.Context, path string, content []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	// Delete removes path. A missing path is not an error.
	Delete(ctx context.Context, path string) error
	// Files lists every object under directory, recursively, as
	// slash-separated paths relative to the disk root.
	Files(ctx context.Context, directory string) ([]string, error)
	// URL is the public address of path.
	URL(path string) string
}

var (
	mu          sync.RWMutex
	disks       = map[string]Disk{}
	defaultDisk = "local"
)

// Connect boots the local disk and, when S3_BUCKET is set, the s3 disk.
// STORAGE_DISK picks the default.
func Connect() {
	mu.Lock()
	defer mu.Unlock()

	defaultDisk = config.StorageDefault()
	disks["local"] = NewLocal(config.StorageLocalRoot(), config.StorageURL())

	if config.StorageS3Bucket() != "" {
		d, err := NewS3(context.Background(), S3Options{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			BaseURL:  config.StorageS3URL(),
		})
		if err != nil {
			logger.Warn("storage: s3 disk disabled", "error", err)
		} else {
			disks["s3"] = d
		}
	}
	if _, ok := disks[defaultDisk]; !ok {
		logger.Warn("storage: default disk unavailable, using local", "disk", defaultDisk)
		defaultDisk = "local"
	}
}

// Use returns the named disk.
func Use(name string) (Disk, error) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := disks[name]
	if !ok {
		return nil, fmt.Errorf("storage: disk %q is not configured", name)
	}
	return d, nil
}

// Default returns the default disk, booting the local one on first use.
func Default() Disk {
	mu.RLock()
	d, ok := disks[defaultDisk]
	mu.RUnlock()
	if ok {
		return d
	}
	Connect()
	mu.RLock()
	defer mu.RUnlock()
	return disks[defaultDisk]
}

// Register installs d under name; tests use it to swap the default disk.
func Register(name string, d Disk) {
	mu.Lock()
	disks[name] = d
	mu.Unlock()
}
