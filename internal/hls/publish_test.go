package hls

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/addismusic/media-service/internal/store"
)

func writeOutputSet(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data-"+name), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestPublish_uploadsEverythingWithLastAccess(t *testing.T) {
	mem := store.NewMemory()
	fixed := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	p := &StorePublisher{Store: mem, Bucket: "hls-playlist", Now: func() time.Time { return fixed }}
	dir := writeOutputSet(t, "master.m3u8", "segment_000.ts", "segment_001.ts")

	if err := p.Publish(context.Background(), dir, NamespaceAdd, "xyz"); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"master.m3u8", "segment_000.ts", "segment_001.ts"} {
		key := "add/xyz/" + name
		data, ok := mem.GetBytes("hls-playlist", key)
		if !ok {
			t.Fatalf("%s not uploaded", key)
		}
		if string(data) != "data-"+name {
			t.Errorf("%s content = %q", key, data)
		}
		md, _ := mem.Metadata("hls-playlist", key)
		if md[LastAccessKey] != fixed.Format(time.RFC3339) {
			t.Errorf("%s last-access = %q", key, md[LastAccessKey])
		}
	}
}

// failAfter passes through to the wrapped store until n uploads have
// succeeded, then fails every upload.
type failAfter struct {
	store.Store
	n     int
	count int
}

func (f *failAfter) Upload(ctx context.Context, bucket, key, localPath string, metadata map[string]string) error {
	if f.count >= f.n {
		return &store.Error{Op: "upload", Bucket: bucket, Key: key, Err: errors.New("injected upload failure")}
	}
	f.count++
	return f.Store.Upload(ctx, bucket, key, localPath, metadata)
}

func TestPublish_partialFailureKeepsUploadedObjects(t *testing.T) {
	mem := store.NewMemory()
	p := &StorePublisher{Store: &failAfter{Store: mem, n: 1}, Bucket: "hls-playlist"}
	dir := writeOutputSet(t, "master.m3u8", "segment_000.ts")

	err := p.Publish(context.Background(), dir, NamespaceMusic, "partial")
	if err == nil {
		t.Fatal("publish should report the failed upload")
	}
	// At-least-once, no rollback: the first object stays behind.
	objs, listErr := mem.List(context.Background(), "hls-playlist", "music/partial/")
	if listErr != nil {
		t.Fatal(listErr)
	}
	if len(objs) != 1 {
		t.Errorf("objects after partial publish = %v, want exactly the first upload", objs)
	}
}

func TestPublish_missingDir(t *testing.T) {
	p := &StorePublisher{Store: store.NewMemory(), Bucket: "hls-playlist"}
	if err := p.Publish(context.Background(), "/does/not/exist", NamespaceMusic, "x"); err == nil {
		t.Error("missing output dir should fail")
	}
}
