// Package scratch maps audio identifiers to local staging paths used while
// transcoding. Stable: the same identifier always maps to the same paths.
package scratch

import (
	"path/filepath"
	"strings"
)

// SourcePath is where the downloaded source object lands before ffmpeg runs.
func SourcePath(dir, audioID string) string {
	return filepath.Join(dir, "src", sanitizeID(audioID))
}

// OutputDir is where ffmpeg writes the segment set + manifest for one track.
// Removed after publish on every exit path.
func OutputDir(dir, audioID string) string {
	return filepath.Join(dir, "out", sanitizeID(audioID))
}

func sanitizeID(id string) string {
	s := strings.ReplaceAll(id, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "\x00", "_")
	s = strings.ReplaceAll(s, "..", "_")
	if s == "" {
		s = "unknown"
	}
	return s
}
