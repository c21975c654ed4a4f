package soc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/peripherals/soc"
)

func TestHWRevisionPacked(t *testing.T) {
	s := soc.New(soc.Config{HWRevisionMajor: 2, HWRevisionMinor: 0, HWRevisionPatch: 0})
	v, err := s.Read(bus.Word, 0x00)
	require.NoError(t, err)
	assert.Equal(t, uint32(2<<16), v)
}

func TestFlagsReportModes(t *testing.T) {
	s := soc.New(soc.Config{StreamingBoot: true, ManufacturingMode: true})
	v, err := s.Read(bus.Word, 0x44)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x3), v)
}

func TestWritesAreRejected(t *testing.T) {
	s := soc.New(soc.Config{})
	err := s.Write(bus.Word, 0x00, 1)
	assert.ErrorIs(t, err, bus.ErrStoreAccessFault)
}
