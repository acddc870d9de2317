// Command media-service issues time-limited signed URLs for HLS audio
// segments, generating the segment set with ffmpeg on first request.
//
//	media-service                 serve (default); reads .env + environment
//	media-service -selftest       run the pipeline in-memory with a stub encoder and exit
//	media-service -check URL      smoke-check a running instance's /health and /metrics
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/addismusic/media-service/internal/config"
	"github.com/addismusic/media-service/internal/health"
	"github.com/addismusic/media-service/internal/hls"
	"github.com/addismusic/media-service/internal/metrics"
	"github.com/addismusic/media-service/internal/server"
	"github.com/addismusic/media-service/internal/signer"
	"github.com/addismusic/media-service/internal/store"
)

func main() {
	envPath := flag.String("env", ".env", "path to .env file (missing file is fine)")
	listen := flag.String("listen", "", "listen address override (default from MEDIA_SVC_LISTEN)")
	selftest := flag.Bool("selftest", false, "run the pipeline against an in-memory store and exit")
	check := flag.String("check", "", "smoke-check a running instance at this base URL and exit")
	flag.Parse()

	if *check != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := health.CheckEndpoints(ctx, *check); err != nil {
			log.Fatalf("check failed: %v", err)
		}
		fmt.Println("ok")
		return
	}

	if err := config.LoadEnvFile(*envPath); err != nil {
		log.Fatalf("load env file: %v", err)
	}
	cfg := config.Load()
	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	if *selftest {
		if err := runSelftest(cfg); err != nil {
			log.Fatalf("selftest failed: %v", err)
		}
		fmt.Println("selftest ok")
		return
	}

	if err := run(cfg); err != nil {
		log.Fatalf("media-service: %v", err)
	}
}

func run(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.ScratchDir, 0o755); err != nil {
		return fmt.Errorf("scratch dir: %w", err)
	}

	// One process per scratch dir: the in-process single-flight map cannot
	// see a second process racing the same transcode output paths.
	lock := flock.New(cfg.LockFile)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire scratch lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another media-service instance holds %s", cfg.LockFile)
	}
	defer lock.Unlock()

	st, err := store.NewMinIO(store.MinIOOptions{
		Endpoint:  cfg.StoreEndpoint,
		AccessKey: cfg.StoreAccessKey,
		SecretKey: cfg.StoreSecretKey,
		Region:    cfg.StoreRegion,
		UseSSL:    cfg.StoreUseSSL,
	})
	if err != nil {
		return fmt.Errorf("store client: %w", err)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	err = health.CheckStore(startupCtx, st, cfg.SourceBucket, cfg.HLSBucket)
	cancel()
	if err != nil {
		return fmt.Errorf("store health: %w", err)
	}

	rec := metrics.NewProm("media_service")
	gen := &hls.Generator{
		Store:  st,
		Bucket: cfg.HLSBucket,
		Transcoder: &hls.FFmpegTranscoder{
			Store:        st,
			SourceBucket: cfg.SourceBucket,
			FFmpegPath:   cfg.FFmpegPath,
			ScratchDir:   cfg.ScratchDir,
			SegmentSecs:  cfg.SegmentSeconds,
			AudioBitrate: cfg.AudioBitrate,
			Timeout:      cfg.TranscodeTimeout,
		},
		Publisher: &hls.StorePublisher{
			Store:        st,
			Bucket:       cfg.HLSBucket,
			StoreTimeout: cfg.StoreTimeout,
		},
		StoreTimeout: cfg.StoreTimeout,
		Metrics:      rec,
	}
	srv := &server.Server{
		Issuer: &signer.Issuer{
			Store:     st,
			Bucket:    cfg.HLSBucket,
			Artifacts: gen,
			Metrics:   rec,
		},
		SignTTL:        cfg.SignTTL,
		Origins:        cfg.Origins(),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Metrics:        rec,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("media-service: serving on %s source=%s hls=%s ttl=%s", cfg.ListenAddr, cfg.SourceBucket, cfg.HLSBucket, cfg.SignTTL)
	return server.Serve(ctx, cfg.ListenAddr, srv.Handler())
}

// stubTranscoder stands in for ffmpeg during -selftest.
type stubTranscoder struct{ scratch string }

func (s stubTranscoder) Transcode(ctx context.Context, ns hls.Namespace, audioID string) (string, error) {
	dir, err := os.MkdirTemp(s.scratch, "selftest")
	if err != nil {
		return "", err
	}
	files := map[string][]byte{
		"master.m3u8":    []byte("#EXTM3U\n#EXT-X-ENDLIST\n"),
		"segment_000.ts": []byte("selftest segment 0"),
		"segment_001.ts": []byte("selftest segment 1"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// runSelftest exercises ensure → publish → sign against the in-memory store,
// verifying the lazy path and the signed-map contract without touching a
// real bucket or encoder.
func runSelftest(cfg *config.Config) error {
	mem := store.NewMemory()
	mem.PutBytes(cfg.SourceBucket, "music/selftest-audio", []byte("source"), nil)
	gen := &hls.Generator{
		Store:      mem,
		Bucket:     cfg.HLSBucket,
		Transcoder: stubTranscoder{scratch: os.TempDir()},
		Publisher:  &hls.StorePublisher{Store: mem, Bucket: cfg.HLSBucket},
	}
	iss := &signer.Issuer{Store: mem, Bucket: cfg.HLSBucket, Artifacts: gen}

	signed := iss.SignForAudio(context.Background(), hls.NamespaceMusic, "selftest-audio", cfg.SignTTL)
	if len(signed) != 2 {
		return fmt.Errorf("signed %d keys, want 2 segments", len(signed))
	}
	for key, u := range signed {
		if hls.IsManifest(key) {
			return fmt.Errorf("manifest %s was signed", key)
		}
		if _, err := mem.Resolve(u); err != nil {
			return fmt.Errorf("resolve %s: %w", key, err)
		}
	}
	// Second pass must hit the published set, not regenerate.
	before := mem.Calls("upload")
	if signed = iss.SignForAudio(context.Background(), hls.NamespaceMusic, "selftest-audio", cfg.SignTTL); len(signed) != 2 {
		return fmt.Errorf("second pass signed %d keys, want 2", len(signed))
	}
	if mem.Calls("upload") != before {
		return fmt.Errorf("second pass re-published; lazy path broken")
	}
	return nil
}
