// Package store wraps the S3-compatible object store behind a small
// capability interface: download, upload, list-by-prefix, presign.
// No operation here retries; retry policy belongs to callers.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound reports a download miss (the source object does not exist).
// Distinguish with errors.Is.
var ErrNotFound = errors.New("object not found")

// Error is a store RPC failure carrying the operation and target.
type Error struct {
	Op     string // "download" | "upload" | "list" | "presign"
	Bucket string
	Key    string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// Store is the object store gateway. All calls are synchronous RPCs against
// the remote store; callers bound them with the ctx deadline.
type Store interface {
	// Download fetches bucket/key into localPath.
	Download(ctx context.Context, bucket, key, localPath string) error
	// Upload stores the file at localPath as bucket/key with the given
	// object metadata.
	Upload(ctx context.Context, bucket, key, localPath string, metadata map[string]string) error
	// List returns every object under prefix.
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	// Presign returns a time-limited GET URL for bucket/key.
	Presign(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}
