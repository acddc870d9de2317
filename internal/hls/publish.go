package hls

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/addismusic/media-service/internal/store"
)

// Publisher uploads a generated segment set to the destination bucket.
type Publisher interface {
	Publish(ctx context.Context, localDir string, ns Namespace, audioID string) error
}

// StorePublisher uploads every file in the output directory to
// {namespace}/{audio_id}/{filename}, tagging each object with a last-access
// timestamp for a future eviction policy.
//
// Publish is at-least-once and non-atomic: the first failed upload aborts the
// rest, and objects already uploaded are not rolled back. A later request
// then sees a non-empty prefix and treats the partial set as complete; the
// existence check trades that window for keeping the bucket the single
// source of truth.
type StorePublisher struct {
	Store        store.Store
	Bucket       string        // HLS destination bucket
	StoreTimeout time.Duration // per-object upload budget; 0 = none

	// Now is the clock for last-access stamps; nil means time.Now.
	Now func() time.Time
}

// LastAccessKey is the object metadata key carrying the publish timestamp.
const LastAccessKey = "last-access"

func (p *StorePublisher) Publish(ctx context.Context, localDir string, ns Namespace, audioID string) error {
	entries, err := os.ReadDir(localDir)
	if err != nil {
		return fmt.Errorf("read output dir: %w", err)
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	stamp := now().UTC().Format(time.RFC3339)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key := ArtifactPrefix(ns, audioID) + entry.Name()
		if err := p.upload(ctx, filepath.Join(localDir, entry.Name()), key, stamp); err != nil {
			return fmt.Errorf("publish %s: %w", key, err)
		}
	}
	return nil
}

func (p *StorePublisher) upload(ctx context.Context, localPath, key, stamp string) error {
	if p.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.StoreTimeout)
		defer cancel()
	}
	return p.Store.Upload(ctx, p.Bucket, key, localPath, map[string]string{
		LastAccessKey: stamp,
	})
}
