package hls

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/addismusic/media-service/internal/scratch"
	"github.com/addismusic/media-service/internal/store"
)

// Transcoder produces a local segment set (segments + manifest) for an audio
// identifier, or fails.
type Transcoder interface {
	// Transcode returns the directory holding the generated files. The
	// caller owns the directory and must remove it when done.
	Transcode(ctx context.Context, ns Namespace, audioID string) (outDir string, err error)
}

// ErrSourceMissing reports that the raw audio object does not exist in the
// source bucket. Wraps store.ErrNotFound.
var ErrSourceMissing = errors.New("source audio not found")

// FFmpegTranscoder downloads the source object to scratch and runs ffmpeg to
// cut a single AAC rendition into fixed-duration MPEG-TS segments. Output:
// segment_%03d.ts files plus master.m3u8.
type FFmpegTranscoder struct {
	Store        store.Store
	SourceBucket string
	FFmpegPath   string // "ffmpeg" when on PATH
	ScratchDir   string
	SegmentSecs  int           // target segment duration
	AudioBitrate string        // e.g. "128k"
	Timeout      time.Duration // download + encode budget; 0 = no limit
}

func (t *FFmpegTranscoder) Transcode(ctx context.Context, ns Namespace, audioID string) (string, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	srcPath := scratch.SourcePath(t.ScratchDir, audioID)
	if err := os.MkdirAll(filepath.Dir(srcPath), 0o755); err != nil {
		return "", fmt.Errorf("scratch dir: %w", err)
	}
	// The source file is only needed while ffmpeg runs; release it on every path.
	defer os.Remove(srcPath)

	if err := t.Store.Download(ctx, t.SourceBucket, SourceKey(ns, audioID), srcPath); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrSourceMissing, SourceKey(ns, audioID))
		}
		return "", fmt.Errorf("download source: %w", err)
	}

	outDir := scratch.OutputDir(t.ScratchDir, audioID)
	// Start from a clean directory so a crashed earlier run can't leak stale
	// segments into the publish step.
	if err := os.RemoveAll(outDir); err != nil {
		return "", fmt.Errorf("clean output dir: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("output dir: %w", err)
	}

	if err := t.run(ctx, srcPath, outDir); err != nil {
		os.RemoveAll(outDir)
		return "", err
	}
	return outDir, nil
}

func (t *FFmpegTranscoder) run(ctx context.Context, srcPath, outDir string) error {
	segSecs := t.SegmentSecs
	if segSecs <= 0 {
		segSecs = 10
	}
	bitrate := t.AudioBitrate
	if bitrate == "" {
		bitrate = "128k"
	}
	ffmpeg := t.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	args := []string{
		"-y",
		"-i", srcPath,
		"-vn",
		"-c:a", "aac",
		"-b:a", bitrate,
		"-f", "hls",
		"-hls_time", strconv.Itoa(segSecs),
		// Segments are fetched individually via signed URLs, so each must
		// decode without its predecessors.
		"-hls_flags", "independent_segments",
		"-hls_list_size", "0",
		"-hls_segment_filename", filepath.Join(outDir, "segment_%03d.ts"),
		filepath.Join(outDir, "master.m3u8"),
	}
	cmd := exec.CommandContext(ctx, ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg: %w", ctxErr)
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(stderr.Bytes(), 512))
	}
	return nil
}

// tail returns the last n bytes of b; ffmpeg puts the useful error at the end.
func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(bytes.TrimSpace(b))
	}
	return string(bytes.TrimSpace(b[len(b)-n:]))
}
