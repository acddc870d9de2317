// Package signer converts an identifier's artifact set into time-limited
// retrieval URLs.
package signer

import (
	"context"
	"log"
	"time"

	"github.com/addismusic/media-service/internal/hls"
	"github.com/addismusic/media-service/internal/metrics"
	"github.com/addismusic/media-service/internal/store"
)

// ArtifactSource yields the signable keys for an identifier, generating the
// set on demand. Satisfied by *hls.Generator.
type ArtifactSource interface {
	EnsureArtifacts(ctx context.Context, ns hls.Namespace, audioID string) []string
}

// Issuer signs every artifact key with a per-request TTL. Signed URLs are
// never stored; each call mints fresh capabilities.
type Issuer struct {
	Store     store.Store
	Bucket    string // HLS bucket the keys live in
	Artifacts ArtifactSource
	Metrics   metrics.Recorder // nil = no-op
}

// SignForAudio returns a map of artifact key to signed URL, one entry per
// media segment. A presign failure drops only that key; the map is empty
// only when the artifact set itself was empty (generation failed or the
// track has no segments).
func (i *Issuer) SignForAudio(ctx context.Context, ns hls.Namespace, audioID string, ttl time.Duration) map[string]string {
	signed := make(map[string]string)
	for _, key := range i.Artifacts.EnsureArtifacts(ctx, ns, audioID) {
		u, err := i.Store.Presign(ctx, i.Bucket, key, ttl)
		if err != nil {
			log.Printf("signer: presign failed key=%s err=%v", key, err)
			i.rec().IncPresignFailure()
			continue
		}
		signed[key] = u
	}
	return signed
}

func (i *Issuer) rec() metrics.Recorder {
	if i.Metrics != nil {
		return i.Metrics
	}
	return metrics.Noop{}
}
