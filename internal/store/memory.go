package store

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

type memObject struct {
	data     []byte
	metadata map[string]string
}

// Memory is an in-process Store for tests and -selftest. Presigned URLs use a
// memory:// scheme and can be resolved back to content with Resolve.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]map[string]memObject
	calls   map[string]int
	fail    map[string]error
}

func NewMemory() *Memory {
	return &Memory{
		buckets: make(map[string]map[string]memObject),
		calls:   make(map[string]int),
		fail:    make(map[string]error),
	}
}

// FailWith makes every subsequent op ("download", "upload", "list",
// "presign") return err; pass nil to clear.
func (m *Memory) FailWith(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

// Calls returns how many times op has been invoked.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// PutBytes seeds bucket/key directly, bypassing the Upload path.
func (m *Memory) PutBytes(bucket, key string, data []byte, metadata map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buckets[bucket] == nil {
		m.buckets[bucket] = make(map[string]memObject)
	}
	m.buckets[bucket][key] = memObject{data: append([]byte(nil), data...), metadata: metadata}
}

// GetBytes returns the stored content of bucket/key, or false if absent.
func (m *Memory) GetBytes(bucket, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.buckets[bucket][key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), obj.data...), true
}

// Metadata returns the object metadata recorded at upload time.
func (m *Memory) Metadata(bucket, key string) (map[string]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.buckets[bucket][key]
	if !ok {
		return nil, false
	}
	return obj.metadata, true
}

func (m *Memory) begin(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.fail[op]
}

func (m *Memory) Download(ctx context.Context, bucket, key, localPath string) error {
	if err := m.begin("download"); err != nil {
		return &Error{Op: "download", Bucket: bucket, Key: key, Err: err}
	}
	data, ok := m.GetBytes(bucket, key)
	if !ok {
		return &Error{Op: "download", Bucket: bucket, Key: key, Err: ErrNotFound}
	}
	if err := os.WriteFile(localPath, data, 0600); err != nil {
		return &Error{Op: "download", Bucket: bucket, Key: key, Err: err}
	}
	return nil
}

func (m *Memory) Upload(ctx context.Context, bucket, key, localPath string, metadata map[string]string) error {
	if err := m.begin("upload"); err != nil {
		return &Error{Op: "upload", Bucket: bucket, Key: key, Err: err}
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return &Error{Op: "upload", Bucket: bucket, Key: key, Err: err}
	}
	m.PutBytes(bucket, key, data, metadata)
	return nil
}

func (m *Memory) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	if err := m.begin("list"); err != nil {
		return nil, &Error{Op: "list", Bucket: bucket, Key: prefix, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for key, obj := range m.buckets[bucket] {
		if strings.HasPrefix(key, prefix) {
			out = append(out, ObjectInfo{Key: key, Size: int64(len(obj.data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *Memory) Presign(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if err := m.begin("presign"); err != nil {
		return "", &Error{Op: "presign", Bucket: bucket, Key: key, Err: err}
	}
	if _, ok := m.GetBytes(bucket, key); !ok {
		return "", &Error{Op: "presign", Bucket: bucket, Key: key, Err: ErrNotFound}
	}
	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("memory://%s/%s?expires=%d", bucket, key, expires), nil
}

// Resolve fetches the content behind a URL previously returned by Presign.
func (m *Memory) Resolve(rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "memory" {
		return nil, fmt.Errorf("not a memory URL: %s", rawURL)
	}
	key := strings.TrimPrefix(u.Path, "/")
	data, ok := m.GetBytes(u.Host, key)
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}
