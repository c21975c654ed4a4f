package firmware_test

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-none/go-chip-rv32/firmware"
)

func TestRoundTripPreservesEveryField(t *testing.T) {
	b := firmware.Bundle{
		CaliptraROM:      []byte("rom"),
		CaliptraFirmware: []byte("fw"),
		MCUROM:           []byte("mcurom"),
		MCURuntime:       []byte("mcurt"),
		SoCManifest:      []byte("manifest"),
	}

	data, err := firmware.WriteBundle(b)
	require.NoError(t, err)

	got, err := firmware.ReadBundle(data)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestReadBundleIgnoresUnknownEntries(t *testing.T) {
	b := firmware.Bundle{
		CaliptraROM:      []byte("a"),
		CaliptraFirmware: []byte("b"),
		MCUROM:           []byte("c"),
		MCURuntime:       []byte("d"),
		SoCManifest:      []byte("e"),
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range map[string][]byte{
		firmware.EntryCaliptraROM:      b.CaliptraROM,
		firmware.EntryCaliptraFirmware: b.CaliptraFirmware,
		firmware.EntryMCUROM:           b.MCUROM,
		firmware.EntryMCURuntime:       b.MCURuntime,
		firmware.EntrySoCManifest:      b.SoCManifest,
		"unknown.bin":                  []byte("x"),
	} {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	got, err := firmware.ReadBundle(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestReadBundleRejectsMissingEntry(t *testing.T) {
	_, err := firmware.ReadBundle([]byte("not a zip"))
	assert.Error(t, err)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.Create(firmware.EntryCaliptraROM)
	require.NoError(t, err)
	_, err = fw.Write([]byte("rom"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = firmware.ReadBundle(buf.Bytes())
	assert.ErrorIs(t, err, firmware.ErrMissingEntry)
}
