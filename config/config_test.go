package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-none/go-chip-rv32/config"
)

func TestEmulatorMemoryMapDefaults(t *testing.T) {
	c := config.EmulatorMemoryMap()
	assert.Equal(t, uint32(0x8000_0000), c.ROM.Offset)
	assert.Equal(t, uint32(0x8000), c.ROM.Size)
	assert.Equal(t, uint32(0x5000_0000), c.DCCM.Offset)
	assert.Equal(t, "2.0.0", c.HWRevision)
}

func TestFPGAMemoryMapWidensSRAMAndDCCM(t *testing.T) {
	e := config.EmulatorMemoryMap()
	f := config.FPGAMemoryMap()
	assert.Equal(t, e.SRAM.Offset, f.SRAM.Offset)
	assert.Greater(t, f.SRAM.Size, e.SRAM.Size)
	assert.Greater(t, f.DCCM.Size, e.DCCM.Size)
}

func TestParseHexAcceptsPrefixedAndBare(t *testing.T) {
	v, err := config.ParseHex("0x80000000")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x80000000), v)

	v, err = config.ParseHex("1024")
	require.NoError(t, err)
	assert.Equal(t, uint64(1024), v)
}

func TestApplyOverrideSetsNamedRegion(t *testing.T) {
	c := config.EmulatorMemoryMap()
	off := uint64(0x9000_0000)
	size := uint64(0x100)
	require.NoError(t, c.ApplyOverride("rom", &off, &size))
	assert.Equal(t, uint32(0x9000_0000), c.ROM.Offset)
	assert.Equal(t, uint32(0x100), c.ROM.Size)
}

func TestApplyOverrideRejectsUnknownRegion(t *testing.T) {
	c := config.EmulatorMemoryMap()
	err := c.ApplyOverride("bogus", nil, nil)
	assert.Error(t, err)
}

func TestLoadImageRawBinaryPassesThrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fw.bin")
	want := []byte{0xde, 0xad, 0xbe, 0xef}
	require.NoError(t, os.WriteFile(path, want, 0o644))

	got, err := config.LoadImage(path, 0x4000_0000)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
