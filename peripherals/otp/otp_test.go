package otp_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/peripherals/otp"
)

func TestNewWithMissingFileStartsZeroed(t *testing.T) {
	dir := t.TempDir()
	o, err := otp.New(0x100, filepath.Join(dir, "nonexistent.fuse"))
	require.NoError(t, err)
	v, err := o.Read(bus.Word, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), v)
}

func TestSaveAndReloadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fuses.bin")

	o, err := otp.New(0x10, "")
	require.NoError(t, err)
	require.NoError(t, o.Write(bus.Word, 4, 0xcafef00d))
	require.NoError(t, o.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, raw, 0x10)

	o2, err := otp.New(0x10, path)
	require.NoError(t, err)
	v, err := o2.Read(bus.Word, 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xcafef00d), v)
}

func TestWarmResetDoesNotClearFuses(t *testing.T) {
	o, err := otp.New(0x10, "")
	require.NoError(t, err)
	require.NoError(t, o.Write(bus.Word, 0, 0x1234))
	o.WarmReset()
	v, _ := o.Read(bus.Word, 0)
	assert.Equal(t, uint32(0x1234), v)
}
