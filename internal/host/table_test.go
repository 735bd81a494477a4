package host

import (
	"errors"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	display "github.com/BeatGlow/display-fsw"
)

func writeTable(t *testing.T, tbl display.Table) (string, []byte) {
	t.Helper()
	data, err := tbl.MarshalBinary()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "display_tbl.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path, data
}

func framebufferTable(t *testing.T) display.Table {
	t.Helper()
	dir, err := os.MkdirTemp("", "fb")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	node := filepath.Join(dir, "fb0")
	require.NoError(t, os.WriteFile(node, nil, 0o600))
	return display.Table{
		DevicePath: node,
		Transport:  display.TransportFramebuffer,
		DCLine:     display.NoLine,
		ResetLine:  display.NoLine,
		ChipSelect: display.NoLine,
	}
}

func TestTableManagerLoad(t *testing.T) {
	m := NewTableManager(nil)
	m.Register(TableName, display.Validate)
	assert.Equal(t, TableName, m.Name())

	_, err := m.Active()
	assert.ErrorIs(t, err, ErrNoTable)
	assert.Zero(t, m.CRC())

	tbl := framebufferTable(t)
	path, data := writeTable(t, tbl)
	require.NoError(t, m.Load(path))

	active, err := m.Active()
	require.NoError(t, err)
	assert.Equal(t, tbl, active)
	assert.Equal(t, crc32.ChecksumIEEE(data), m.CRC())
}

func TestTableManagerRetainsPrevious(t *testing.T) {
	m := NewTableManager(nil)
	m.Register(TableName, display.Validate)

	good := framebufferTable(t)
	path, _ := writeTable(t, good)
	require.NoError(t, m.Load(path))
	crc := m.CRC()

	// Device node does not exist.
	bad := good
	bad.DevicePath = "/nonexistent/fb7"
	path, _ = writeTable(t, bad)
	err := m.Load(path)
	assert.ErrorIs(t, err, display.DeviceNotFound)

	// Corrupt image.
	assert.ErrorIs(t, m.LoadImage([]byte{1, 2, 3}), display.ConfigInvalid)

	// Missing file.
	assert.Error(t, m.Load(filepath.Join(t.TempDir(), "none.bin")))

	active, err := m.Active()
	require.NoError(t, err)
	assert.Equal(t, good, active)
	assert.Equal(t, crc, m.CRC())
}

func TestTableManagerValidatorVeto(t *testing.T) {
	veto := errors.New("vetoed")
	m := NewTableManager(nil)
	m.Register(TableName, func(*display.Table) error { return veto })

	_, data := writeTable(t, framebufferTable(t))
	assert.ErrorIs(t, m.LoadImage(data), veto)
	_, err := m.Active()
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestTableManagerNotRegistered(t *testing.T) {
	_, data := writeTable(t, framebufferTable(t))
	assert.ErrorIs(t, NewTableManager(nil).LoadImage(data), ErrNotRegistered)
}
