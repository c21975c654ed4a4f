// Package firmware implements the ZIP firmware bundle of §6: a ZIP
// archive with five literal entry names, deflate compression, and
// 0o644 Unix permission bits. Grounded on the stdlib archive/zip
// package -- no ecosystem ZIP library appears anywhere in the example
// pack, and this format is a thin, self-contained concern the whole Go
// ecosystem reaches for archive/zip to handle (see DESIGN.md).
package firmware

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
)

// Entry names are literal, per §6.
const (
	EntryCaliptraROM      = "caliptra_rom.bin"
	EntryCaliptraFirmware = "caliptra_fw.bin"
	EntryMCUROM           = "mcu_rom.bin"
	EntryMCURuntime       = "mcu_runtime.bin"
	EntrySoCManifest      = "soc_manifest.bin"
)

// ErrMissingEntry is returned by ReadBundle if a required entry is
// absent. Unknown entries are ignored on read, per §6.
var ErrMissingEntry = errors.New("firmware: bundle missing required entry")

// Bundle is the in-memory representation of the five firmware blobs.
type Bundle struct {
	CaliptraROM      []byte
	CaliptraFirmware []byte
	MCUROM           []byte
	MCURuntime       []byte
	SoCManifest      []byte
}

// WriteBundle serializes b as a deflate-compressed ZIP archive with
// 0o644 permissions on every entry.
func WriteBundle(b Bundle) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	entries := []struct {
		name string
		data []byte
	}{
		{EntryCaliptraROM, b.CaliptraROM},
		{EntryCaliptraFirmware, b.CaliptraFirmware},
		{EntryMCUROM, b.MCUROM},
		{EntryMCURuntime, b.MCURuntime},
		{EntrySoCManifest, b.SoCManifest},
	}

	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
		hdr.SetMode(0o644)
		fw, err := w.CreateHeader(hdr)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(e.data); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadBundle parses a ZIP archive produced by WriteBundle (or any ZIP
// carrying the same five literal entry names). Unknown entries are
// silently ignored; a missing required entry is an error.
func ReadBundle(data []byte) (Bundle, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Bundle{}, err
	}

	found := make(map[string][]byte, 5)
	for _, f := range r.File {
		switch f.Name {
		case EntryCaliptraROM, EntryCaliptraFirmware, EntryMCUROM, EntryMCURuntime, EntrySoCManifest:
			rc, err := f.Open()
			if err != nil {
				return Bundle{}, err
			}
			content, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return Bundle{}, err
			}
			found[f.Name] = content
		default:
			// unknown entries ignored, per §6
		}
	}

	required := []string{EntryCaliptraROM, EntryCaliptraFirmware, EntryMCUROM, EntryMCURuntime, EntrySoCManifest}
	for _, name := range required {
		if _, ok := found[name]; !ok {
			return Bundle{}, ErrMissingEntry
		}
	}

	return Bundle{
		CaliptraROM:      found[EntryCaliptraROM],
		CaliptraFirmware: found[EntryCaliptraFirmware],
		MCUROM:           found[EntryMCUROM],
		MCURuntime:       found[EntryMCURuntime],
		SoCManifest:      found[EntrySoCManifest],
	}, nil
}
