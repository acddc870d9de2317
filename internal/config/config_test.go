package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_defaults(t *testing.T) {
	os.Clearenv()
	c := Load()
	if c.SourceBucket != DefaultSourceBucket {
		t.Errorf("SourceBucket = %q, want %q", c.SourceBucket, DefaultSourceBucket)
	}
	if c.HLSBucket != DefaultHLSBucket {
		t.Errorf("HLSBucket = %q, want %q", c.HLSBucket, DefaultHLSBucket)
	}
	if c.SignTTL != 1200*time.Second {
		t.Errorf("SignTTL = %v, want 20m", c.SignTTL)
	}
	if c.SegmentSeconds != 10 {
		t.Errorf("SegmentSeconds = %d, want 10", c.SegmentSeconds)
	}
	if c.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %q", c.ListenAddr)
	}
	if c.LockFile == "" {
		t.Error("LockFile should default under ScratchDir")
	}
}

func TestLoad_envOverrides(t *testing.T) {
	os.Clearenv()
	os.Setenv("MEDIA_SVC_STORE_ENDPOINT", "store:9000")
	os.Setenv("MEDIA_SVC_HLS_BUCKET", "hls-test")
	os.Setenv("MEDIA_SVC_SIGN_TTL", "300")
	os.Setenv("MEDIA_SVC_TRANSCODE_TIMEOUT", "2m")
	os.Setenv("MEDIA_SVC_RATE_LIMIT_RPS", "5.5")
	c := Load()
	if c.StoreEndpoint != "store:9000" {
		t.Errorf("StoreEndpoint = %q", c.StoreEndpoint)
	}
	if c.HLSBucket != "hls-test" {
		t.Errorf("HLSBucket = %q", c.HLSBucket)
	}
	if c.SignTTL != 300*time.Second {
		t.Errorf("bare-seconds TTL: SignTTL = %v, want 5m", c.SignTTL)
	}
	if c.TranscodeTimeout != 2*time.Minute {
		t.Errorf("TranscodeTimeout = %v, want 2m", c.TranscodeTimeout)
	}
	if c.RateLimitRPS != 5.5 {
		t.Errorf("RateLimitRPS = %v, want 5.5", c.RateLimitRPS)
	}
}

func TestValidate_sameBucket(t *testing.T) {
	os.Clearenv()
	os.Setenv("MEDIA_SVC_SOURCE_BUCKET", "same")
	os.Setenv("MEDIA_SVC_HLS_BUCKET", "same")
	c := Load()
	if err := c.Validate(); err == nil {
		t.Error("identical source and HLS buckets should fail validation")
	}
}

func TestValidate_ok(t *testing.T) {
	os.Clearenv()
	c := Load()
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestOrigins(t *testing.T) {
	os.Clearenv()
	os.Setenv("MEDIA_SVC_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	c := Load()
	got := c.Origins()
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("Origins() = %v", got)
	}
}

func TestOrigins_default(t *testing.T) {
	os.Clearenv()
	c := Load()
	got := c.Origins()
	if len(got) != 1 || got[0] != "*" {
		t.Errorf("Origins() = %v, want [*]", got)
	}
}
