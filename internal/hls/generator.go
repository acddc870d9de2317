package hls

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/addismusic/media-service/internal/metrics"
	"github.com/addismusic/media-service/internal/store"
)

// Generator ensures streaming artifacts exist for an identifier, generating
// them on first demand. The destination bucket is the single source of truth:
// a non-empty prefix means the set exists, an empty one means generate now.
//
// Generation is single-flight per (namespace, audio_id): concurrent requests
// for the same never-before-generated identifier share one download +
// transcode + publish; late arrivals wait, then re-check the bucket.
type Generator struct {
	Store        store.Store
	Bucket       string // HLS destination bucket
	Transcoder   Transcoder
	Publisher    Publisher
	StoreTimeout time.Duration    // per list call; 0 = none
	Metrics      metrics.Recorder // nil = no-op

	mu       sync.Mutex
	inFlight map[string]chan struct{}
	lastErr  map[string]error // last failure per prefix so waiters can log a cause
}

// EnsureArtifacts returns the non-manifest artifact keys under the
// identifier's prefix, generating the set first when the prefix is empty.
// An empty result is the failure signal; the reason is logged, never
// returned, so callers cannot branch on it.
func (g *Generator) EnsureArtifacts(ctx context.Context, ns Namespace, audioID string) []string {
	prefix := ArtifactPrefix(ns, audioID)

	objs, err := g.list(ctx, prefix)
	if err != nil {
		log.Printf("hls: list failed prefix=%s err=%v", prefix, err)
		g.rec().IncGeneration("failed")
		return nil
	}
	if len(objs) > 0 {
		g.rec().IncGeneration("hit")
		return segmentKeys(objs)
	}

	g.mu.Lock()
	if g.inFlight == nil {
		g.inFlight = make(map[string]chan struct{})
		g.lastErr = make(map[string]error)
	}
	wait, exists := g.inFlight[prefix]
	if exists {
		g.mu.Unlock()
		select {
		case <-ctx.Done():
			log.Printf("hls: wait for in-flight generation canceled prefix=%s err=%v", prefix, ctx.Err())
			return nil
		case <-wait:
			g.mu.Lock()
			lastErr := g.lastErr[prefix]
			g.mu.Unlock()
			if lastErr != nil {
				log.Printf("hls: in-flight generation failed prefix=%s err=%v", prefix, lastErr)
			}
			objs, err := g.list(ctx, prefix)
			if err != nil {
				log.Printf("hls: post-wait list failed prefix=%s err=%v", prefix, err)
				return nil
			}
			return segmentKeys(objs)
		}
	}
	done := make(chan struct{})
	g.inFlight[prefix] = done
	g.mu.Unlock()

	// Released unconditionally so waiters never block on a dead flight.
	defer func() {
		g.mu.Lock()
		delete(g.inFlight, prefix)
		close(done)
		g.mu.Unlock()
	}()

	// Re-check now that we own the flight: a generation that completed
	// between our first list and the map registration must not repeat.
	objs, err = g.list(ctx, prefix)
	if err != nil {
		log.Printf("hls: pre-generation list failed prefix=%s err=%v", prefix, err)
		g.rec().IncGeneration("failed")
		return nil
	}
	if len(objs) > 0 {
		g.rec().IncGeneration("hit")
		return segmentKeys(objs)
	}

	start := time.Now()
	genErr := g.generate(ctx, ns, audioID)
	g.rec().ObserveGenerationSeconds(time.Since(start).Seconds())
	g.mu.Lock()
	if genErr != nil {
		g.lastErr[prefix] = genErr
	} else {
		delete(g.lastErr, prefix)
	}
	g.mu.Unlock()

	if genErr != nil {
		log.Printf("hls: generation failed prefix=%s err=%v", prefix, genErr)
		g.rec().IncGeneration("failed")
		return nil
	}

	objs, err = g.list(ctx, prefix)
	if err != nil {
		log.Printf("hls: post-generation list failed prefix=%s err=%v", prefix, err)
		g.rec().IncGeneration("failed")
		return nil
	}
	if len(objs) == 0 {
		log.Printf("hls: prefix still empty after generation prefix=%s", prefix)
		g.rec().IncGeneration("failed")
		return nil
	}
	log.Printf("hls: generated prefix=%s objects=%d", prefix, len(objs))
	g.rec().IncGeneration("generated")
	return segmentKeys(objs)
}

func (g *Generator) generate(ctx context.Context, ns Namespace, audioID string) error {
	outDir, err := g.Transcoder.Transcode(ctx, ns, audioID)
	if err != nil {
		return err
	}
	defer os.RemoveAll(outDir)
	return g.Publisher.Publish(ctx, outDir, ns, audioID)
}

func (g *Generator) list(ctx context.Context, prefix string) ([]store.ObjectInfo, error) {
	if g.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.StoreTimeout)
		defer cancel()
	}
	return g.Store.List(ctx, g.Bucket, prefix)
}

func (g *Generator) rec() metrics.Recorder {
	if g.Metrics != nil {
		return g.Metrics
	}
	return metrics.Noop{}
}

// segmentKeys drops manifest objects; only media segments are ever signed.
func segmentKeys(objs []store.ObjectInfo) []string {
	keys := make([]string, 0, len(objs))
	for _, obj := range objs {
		if IsManifest(obj.Key) {
			continue
		}
		keys = append(keys, obj.Key)
	}
	return keys
}
