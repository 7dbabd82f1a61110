package nfo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<game>
    <title>Sonic the Hedgehog</title>
    <year>1991</year>
    <genre>Platform</genre>
    <developer>Sonic Team</developer>
    <nplayers>1</nplayers>
    <esrb>E - Everyone</esrb>
    <plot>Fast &amp; blue.</plot>
    <Title>Ignored duplicate</Title>
    <broken>value</mismatch>
</game>
`

func TestParse(t *testing.T) {
	fields := Parse(sample)

	assert.Equal(t, "Sonic the Hedgehog", fields["title"])
	assert.Equal(t, "1991", fields["year"])
	assert.Equal(t, "Platform", fields["genre"])
	assert.Equal(t, "Sonic Team", fields["developer"])
	assert.Equal(t, "1", fields["nplayers"])
	assert.Equal(t, "E - Everyone", fields["esrb"])
	assert.Equal(t, "Fast & blue.", fields["plot"])
	_, ok := fields["broken"]
	assert.False(t, ok)
}

func TestPathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("roms", "Sonic (USA).nfo"), PathFor(filepath.Join("roms", "Sonic (USA).zip")))
}

func TestReadFor(t *testing.T) {
	dir := t.TempDir()
	rom := filepath.Join(dir, "Sonic (USA).zip")
	require.NoError(t, os.WriteFile(PathFor(rom), []byte(sample), 0o600))

	fields, err := ReadFor(rom)
	require.NoError(t, err)
	assert.Equal(t, "Sonic the Hedgehog", fields["title"])
}

func TestReadFor_Missing(t *testing.T) {
	rom := filepath.Join(t.TempDir(), "Nothing.zip")

	_, err := ReadFor(rom)
	assert.True(t, errors.Is(err, ErrNoSidecar))
}
