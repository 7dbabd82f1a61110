package scraper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://cdn.example.com/boxart/front/123.png", ".png"},
		{"https://cdn.example.com/img/123.JPEG?w=200", ".jpeg"},
		{"https://cdn.example.com/img/123", ".jpg"},
		{"https://cdn.example.com/img/", ".jpg"},
		{"https://cdn.example.com/manual.pdf", ".pdf"},
		{"https://cdn.example.com/a.b/image", ".jpg"},
		{"not a url at all", ".jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtensionFromURL(tt.url))
		})
	}
}

func TestAssetPath(t *testing.T) {
	rom := RomIdentity{BaseName: "Sonic", ObjectID: "a1b2c3d4"}

	assert.Equal(t, filepath.Join("/art/snaps", "Sonic.png"),
		AssetPath(NamingDir, "/art/snaps", AssetSnap, rom, ".png"))
	assert.Equal(t, filepath.Join("/fav", "Sonic_a1b_boxfront.jpg"),
		AssetPath(NamingSuffix, "/fav", AssetBoxFront, rom, ".jpg"))

	short := RomIdentity{BaseName: "X", ObjectID: "9"}
	assert.Equal(t, filepath.Join("/fav", "X_9_snap.jpg"),
		AssetPath(NamingSuffix, "/fav", AssetSnap, short, ".jpg"))
}

func TestParseNamingScheme(t *testing.T) {
	n, err := ParseNamingScheme("SUFFIX")
	require.NoError(t, err)
	assert.Equal(t, NamingSuffix, n)

	n, err = ParseNamingScheme("")
	require.NoError(t, err)
	assert.Equal(t, NamingDir, n)

	_, err = ParseNamingScheme("flat")
	assert.Error(t, err)
}

func TestFindLocalAsset(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sonic.PNG"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Sonic.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Sonic.pdf"), []byte("x"), 0o644))

	path, err := FindLocalAsset(dir, "Sonic", AssetSnap)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sonic.PNG"), path)

	path, err = FindLocalAsset(dir, "Sonic", AssetManual)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Sonic.pdf"), path)

	_, err = FindLocalAsset(dir, "Sonic", AssetTrailer)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = FindLocalAsset(filepath.Join(dir, "missing"), "Sonic", AssetSnap)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseAssetKind(t *testing.T) {
	for _, k := range AllAssetKinds() {
		got, err := ParseAssetKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseAssetKind("Screenshot")
	require.NoError(t, err)
	assert.Equal(t, AssetSnap, got)

	_, err = ParseAssetKind("hologram")
	assert.Error(t, err)
}
