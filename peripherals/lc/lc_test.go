package lc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/peripherals/lc"
)

func TestStateIsReadOnly(t *testing.T) {
	l := lc.New(lc.Production)
	v, err := l.Read(bus.Word, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(lc.Production), v)
	assert.Equal(t, lc.Production, l.State())

	err = l.Write(bus.Word, 0, 0)
	assert.ErrorIs(t, err, bus.ErrStoreAccessFault)
}
