package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Default bucket names match what the upload pipeline provisions.
const (
	DefaultSourceBucket = "addis-music"
	DefaultHLSBucket    = "hls-playlist"
)

// Config holds store + transcode + serve settings.
// Load from env; call LoadEnvFile(".env") before Load() to use a .env file.
type Config struct {
	// Object store (S3-compatible; MinIO in dev)
	StoreEndpoint  string // host:port, e.g. localhost:9000
	StoreRegion    string
	StoreAccessKey string
	StoreSecretKey string
	StoreUseSSL    bool
	SourceBucket   string // raw uploaded audio, keyed {namespace}/{audio_id}
	HLSBucket      string // generated segment sets, keyed {namespace}/{audio_id}/{file}

	// Transcode
	FFmpegPath       string
	ScratchDir       string        // local staging for downloads + ffmpeg output
	SegmentSeconds   int           // HLS segment duration target
	AudioBitrate     string        // e.g. "128k"
	TranscodeTimeout time.Duration // whole download+encode budget per track
	StoreTimeout     time.Duration // per store RPC

	// Serve
	ListenAddr     string
	SignTTL        time.Duration // presigned URL lifetime granted to callers
	AllowedOrigins string        // CORS; "*" or comma-separated list
	RateLimitRPS   float64       // per client IP; 0 disables
	RateLimitBurst int
	LockFile       string // flock path guarding ScratchDir across processes
}

// Load reads config from environment with defaults. Never fails; Validate
// reports what is unusable.
func Load() *Config {
	c := &Config{
		StoreEndpoint:    getEnv("MEDIA_SVC_STORE_ENDPOINT", "localhost:9000"),
		StoreRegion:      os.Getenv("MEDIA_SVC_STORE_REGION"),
		StoreAccessKey:   os.Getenv("MEDIA_SVC_STORE_ACCESS_KEY"),
		StoreSecretKey:   os.Getenv("MEDIA_SVC_STORE_SECRET_KEY"),
		StoreUseSSL:      getEnvBool("MEDIA_SVC_STORE_USE_SSL", false),
		SourceBucket:     getEnv("MEDIA_SVC_SOURCE_BUCKET", DefaultSourceBucket),
		HLSBucket:        getEnv("MEDIA_SVC_HLS_BUCKET", DefaultHLSBucket),
		FFmpegPath:       getEnv("MEDIA_SVC_FFMPEG_PATH", "ffmpeg"),
		ScratchDir:       getEnv("MEDIA_SVC_SCRATCH_DIR", "/tmp/hls"),
		SegmentSeconds:   getEnvInt("MEDIA_SVC_SEGMENT_SECONDS", 10),
		AudioBitrate:     getEnv("MEDIA_SVC_AUDIO_BITRATE", "128k"),
		TranscodeTimeout: getEnvDuration("MEDIA_SVC_TRANSCODE_TIMEOUT", 10*time.Minute),
		StoreTimeout:     getEnvDuration("MEDIA_SVC_STORE_TIMEOUT", 30*time.Second),
		ListenAddr:       getEnv("MEDIA_SVC_LISTEN", ":8000"),
		SignTTL:          getEnvDuration("MEDIA_SVC_SIGN_TTL", 1200*time.Second),
		AllowedOrigins:   getEnv("MEDIA_SVC_ALLOWED_ORIGINS", "*"),
		RateLimitRPS:     getEnvFloat("MEDIA_SVC_RATE_LIMIT_RPS", 0),
		RateLimitBurst:   getEnvInt("MEDIA_SVC_RATE_LIMIT_BURST", 20),
		LockFile:         os.Getenv("MEDIA_SVC_LOCK_FILE"),
	}
	if c.SegmentSeconds <= 0 {
		c.SegmentSeconds = 10
	}
	if c.SignTTL <= 0 {
		c.SignTTL = 1200 * time.Second
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 20
	}
	if c.LockFile == "" {
		c.LockFile = filepath.Join(c.ScratchDir, ".media-service.lock")
	}
	return c
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	if c.StoreEndpoint == "" {
		return fmt.Errorf("MEDIA_SVC_STORE_ENDPOINT is required")
	}
	if c.SourceBucket == "" || c.HLSBucket == "" {
		return fmt.Errorf("source and HLS bucket names must be non-empty")
	}
	if c.SourceBucket == c.HLSBucket {
		return fmt.Errorf("source bucket and HLS bucket must differ (got %q for both)", c.SourceBucket)
	}
	if c.ScratchDir == "" {
		return fmt.Errorf("MEDIA_SVC_SCRATCH_DIR must be non-empty")
	}
	return nil
}

// Origins returns the parsed CORS allow-list; ["*"] means any origin.
func (c *Config) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// bare number means seconds; the old deployment configured TTLs that way
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return defaultVal
}
