package hls

import "testing"

func TestNamespaceFor(t *testing.T) {
	if NamespaceFor(false) != NamespaceMusic {
		t.Error("is_add=false should select music")
	}
	if NamespaceFor(true) != NamespaceAdd {
		t.Error("is_add=true should select add")
	}
}

func TestKeys(t *testing.T) {
	id := "65614671-2214-4818-b3d1-454e-be39-c82afdd2748e"
	if got := SourceKey(NamespaceMusic, id); got != "music/"+id {
		t.Errorf("SourceKey = %q", got)
	}
	if got := ArtifactPrefix(NamespaceAdd, id); got != "add/"+id+"/" {
		t.Errorf("ArtifactPrefix = %q", got)
	}
}

func TestIsManifest(t *testing.T) {
	cases := []struct {
		key  string
		want bool
	}{
		{"music/a/master.m3u8", true},
		{"music/a/other.m3u8", true},
		{"music/a/segment_000.ts", false},
		{"music/a/m3u8.ts", false},
	}
	for _, tc := range cases {
		if got := IsManifest(tc.key); got != tc.want {
			t.Errorf("IsManifest(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}
