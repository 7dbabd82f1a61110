package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanm101/romscraper/internal/config"
	"github.com/ryanm101/romscraper/internal/platform"
	"github.com/ryanm101/romscraper/internal/scraper"
)

func TestBuildSettings(t *testing.T) {
	sc := config.DefaultConfig().Scraper
	sc.AssetKinds = []string{"snap", "cover"}
	assets := map[string]string{"snap": "/media/snap", "boxfront": "/media/box"}

	s, err := buildSettings(sc, assets, false)
	require.NoError(t, err)
	assert.Equal(t, scraper.MetadataSourceOnly, s.MetadataPolicy)
	assert.Equal(t, scraper.AssetLocalThenSource, s.AssetPolicy)
	assert.Equal(t, "thegamesdb", s.MetadataSource)
	assert.Equal(t, scraper.NamingDir, s.Naming)
	assert.Equal(t, 120*time.Second, s.DownloadTimeout)
	assert.Equal(t, []scraper.AssetKind{scraper.AssetSnap, scraper.AssetBoxFront}, s.AssetKinds)
	assert.Equal(t, "/media/box", s.AssetDirs[scraper.AssetBoxFront])
}

func TestBuildSettings_DefaultKindsFromDirs(t *testing.T) {
	sc := config.DefaultConfig().Scraper
	s, err := buildSettings(sc, map[string]string{"title": "/t", "snap": "/s"}, false)
	require.NoError(t, err)
	assert.Equal(t, []scraper.AssetKind{scraper.AssetTitle, scraper.AssetSnap}, s.AssetKinds)
}

func TestBuildSettings_CollectsProblems(t *testing.T) {
	sc := config.DefaultConfig().Scraper
	sc.MetadataPolicy = "whatever"
	sc.Naming = "flat"
	sc.AssetKinds = []string{"hologram"}

	_, err := buildSettings(sc, map[string]string{"poster": "/p"}, false)
	var cfgErr *scraper.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Len(t, cfgErr.Problems, 4)
}

func TestOverridesApply(t *testing.T) {
	sc := config.DefaultConfig().Scraper
	got := scrapeOverrides{AssetPolicy: "source_only", Kinds: []string{"title"}}.apply(sc)
	assert.Equal(t, "source_only", got.AssetPolicy)
	assert.Equal(t, sc.MetadataPolicy, got.MetadataPolicy)
	assert.Equal(t, []string{"title"}, got.AssetKinds)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "media"), expandHome("~/media"))
	assert.Equal(t, "/abs", expandHome("/abs"))
}

func TestCollectRoms(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "snes", "A.sfc"), "x")
	writeFile(t, filepath.Join(dir, "snes", "A.nfo"), "x")
	writeFile(t, filepath.Join(dir, "snes", "A.png"), "x")
	writeFile(t, filepath.Join(dir, "snes", ".hidden.sfc"), "x")
	writeFile(t, filepath.Join(dir, "nes", "B.nes"), "x")
	writeFile(t, filepath.Join(dir, "misc", "C.bin"), "x")
	writeFile(t, filepath.Join(dir, "snes", "media", "A.sfc"), "x")

	roms, err := collectRoms([]string{dir}, platform.Default(), "", []string{filepath.Join(dir, "snes", "media")})
	require.NoError(t, err)
	require.Len(t, roms, 2)
	assert.Equal(t, filepath.Join(dir, "nes", "B.nes"), roms[0].Path)
	assert.Equal(t, "Nintendo NES", roms[0].Platform)
	assert.Equal(t, "Nintendo SNES", roms[1].Platform)

	roms, err = collectRoms([]string{filepath.Join(dir, "misc")}, platform.Default(), "Nintendo NES", nil)
	require.NoError(t, err)
	require.Len(t, roms, 1)
	assert.Equal(t, "Nintendo NES", roms[0].Platform)
}

func TestResolvePlatformFlag(t *testing.T) {
	r := platform.Default()

	name, err := resolvePlatformFlag(r, "snes")
	require.NoError(t, err)
	assert.Equal(t, "Nintendo SNES", name)

	name, err = resolvePlatformFlag(r, "nintendo snes")
	require.NoError(t, err)
	assert.Equal(t, "Nintendo SNES", name)

	_, err = resolvePlatformFlag(r, "toaster")
	assert.Error(t, err)
}
