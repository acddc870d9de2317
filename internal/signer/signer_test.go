package signer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/addismusic/media-service/internal/hls"
	"github.com/addismusic/media-service/internal/store"
)

type staticArtifacts struct {
	keys []string
}

func (s staticArtifacts) EnsureArtifacts(ctx context.Context, ns hls.Namespace, audioID string) []string {
	return s.keys
}

func TestSignForAudio_signsEverySegment(t *testing.T) {
	mem := store.NewMemory()
	mem.PutBytes("hls-playlist", "music/A/segment_000.ts", []byte("s0"), nil)
	mem.PutBytes("hls-playlist", "music/A/segment_001.ts", []byte("s1"), nil)
	iss := &Issuer{
		Store:     mem,
		Bucket:    "hls-playlist",
		Artifacts: staticArtifacts{keys: []string{"music/A/segment_000.ts", "music/A/segment_001.ts"}},
	}

	got := iss.SignForAudio(context.Background(), hls.NamespaceMusic, "A", 20*time.Minute)
	if len(got) != 2 {
		t.Fatalf("signed map = %v, want 2 entries", got)
	}
	for key := range got {
		if hls.IsManifest(key) {
			t.Errorf("manifest in signed map: %s", key)
		}
	}
}

func TestSignForAudio_emptyArtifactsGiveEmptyMap(t *testing.T) {
	iss := &Issuer{Store: store.NewMemory(), Bucket: "hls-playlist", Artifacts: staticArtifacts{}}
	got := iss.SignForAudio(context.Background(), hls.NamespaceMusic, "C", time.Minute)
	if len(got) != 0 {
		t.Errorf("signed map = %v, want empty", got)
	}
}

func TestSignForAudio_presignFailureDropsOnlyThatKey(t *testing.T) {
	mem := store.NewMemory()
	// segment_001.ts is absent so its presign fails; segment_000.ts signs fine.
	mem.PutBytes("hls-playlist", "music/A/segment_000.ts", []byte("s0"), nil)
	iss := &Issuer{
		Store:     mem,
		Bucket:    "hls-playlist",
		Artifacts: staticArtifacts{keys: []string{"music/A/segment_000.ts", "music/A/segment_001.ts"}},
	}

	got := iss.SignForAudio(context.Background(), hls.NamespaceMusic, "A", time.Minute)
	if len(got) != 1 {
		t.Fatalf("signed map = %v, want the one signable key", got)
	}
	if _, ok := got["music/A/segment_000.ts"]; !ok {
		t.Errorf("surviving key missing from %v", got)
	}
}

func TestSignForAudio_roundTrip(t *testing.T) {
	mem := store.NewMemory()
	payload := []byte("mpeg-ts segment bytes")
	mem.PutBytes("hls-playlist", "music/A/segment_000.ts", payload, nil)
	iss := &Issuer{
		Store:     mem,
		Bucket:    "hls-playlist",
		Artifacts: staticArtifacts{keys: []string{"music/A/segment_000.ts"}},
	}

	got := iss.SignForAudio(context.Background(), hls.NamespaceMusic, "A", time.Minute)
	u, ok := got["music/A/segment_000.ts"]
	if !ok {
		t.Fatalf("key not signed: %v", got)
	}
	data, err := mem.Resolve(u)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("resolved %q, want the published bytes", data)
	}
}

func TestSignForAudio_endToEndWithGenerator(t *testing.T) {
	mem := store.NewMemory()
	mem.PutBytes("hls-playlist", "music/B/master.m3u8", []byte("#EXTM3U"), nil)
	mem.PutBytes("hls-playlist", "music/B/segment_000.ts", []byte("0"), nil)
	mem.PutBytes("hls-playlist", "music/B/segment_001.ts", []byte("1"), nil)
	mem.PutBytes("hls-playlist", "music/B/segment_002.ts", []byte("2"), nil)
	gen := &hls.Generator{
		Store:      mem,
		Bucket:     "hls-playlist",
		Transcoder: failingTranscoder{},
		Publisher:  &hls.StorePublisher{Store: mem, Bucket: "hls-playlist"},
	}
	iss := &Issuer{Store: mem, Bucket: "hls-playlist", Artifacts: gen}

	got := iss.SignForAudio(context.Background(), hls.NamespaceMusic, "B", 20*time.Minute)
	if len(got) != 3 {
		t.Fatalf("signed map = %v, want 3 segments", got)
	}
	if _, ok := got["music/B/master.m3u8"]; ok {
		t.Error("manifest must never be signed")
	}
}

type failingTranscoder struct{}

func (failingTranscoder) Transcode(ctx context.Context, ns hls.Namespace, audioID string) (string, error) {
	return "", errors.New("transcoder must not run for an existing set")
}
