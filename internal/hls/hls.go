// Package hls implements the lazy transcode-and-deliver pipeline: deciding
// whether a segment set exists for an audio identifier, generating it on
// first demand (download source, run ffmpeg, publish segments), and listing
// the signable artifact keys.
package hls

import "strings"

// Namespace is one of the two fixed source collections. It is the first
// segment of every source key and artifact prefix.
type Namespace string

const (
	NamespaceMusic Namespace = "music"
	NamespaceAdd   Namespace = "add"
)

// NamespaceFor maps the request flag to a namespace.
func NamespaceFor(isAdd bool) Namespace {
	if isAdd {
		return NamespaceAdd
	}
	return NamespaceMusic
}

// SourceKey locates the raw audio object in the source bucket.
func SourceKey(ns Namespace, audioID string) string {
	return string(ns) + "/" + audioID
}

// ArtifactPrefix is the destination prefix holding the whole segment set for
// one identifier. Existence is checked at this granularity.
func ArtifactPrefix(ns Namespace, audioID string) string {
	return string(ns) + "/" + audioID + "/"
}

// ManifestSuffix marks playlist files, which are never signed.
const ManifestSuffix = ".m3u8"

// IsManifest reports whether key names a playlist rather than a media segment.
func IsManifest(key string) bool {
	return strings.HasSuffix(key, ManifestSuffix)
}
