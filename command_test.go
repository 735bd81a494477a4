package display

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDecodeCommandList(t *testing.T) {
	list, err := DecodeCommandList([]byte{
		3,
		0x01, 0x80, 150,
		0x11, 0x80, 255,
		0xB1, 3, 0x01, 0x2C, 0x2D,
	})
	require.NoError(t, err)
	assert.Equal(t, CommandList{
		{Opcode: 0x01, Delay: 150 * time.Millisecond},
		{Opcode: 0x11, Delay: 500 * time.Millisecond},
		{Opcode: 0xB1, Args: []byte{0x01, 0x2C, 0x2D}},
	}, list)
}

func TestDecodeCommandListMalformed(t *testing.T) {
	tests := []struct {
		Name string
		Data []byte
	}{
		{"empty", nil},
		{"missing command", []byte{1}},
		{"truncated args", []byte{1, 0xB1, 3, 0x01}},
		{"truncated delay", []byte{1, 0x01, 0x80}},
		{"too many args", append([]byte{1, 0xE0, 17}, make([]byte, 17)...)},
		{"trailing", []byte{1, 0x29, 0, 0x00}},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			_, err := DecodeCommandList(test.Data)
			assert.ErrorIs(it, err, ErrCommandEncoding)
		})
	}
}

func TestEncodeCommandList(t *testing.T) {
	for _, data := range [][]byte{st7735RInit1, st7735RInit3, st7735BInit, st7735RInit2Green} {
		list, err := DecodeCommandList(data)
		require.NoError(t, err)
		out, err := EncodeCommandList(list)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	}

	_, err := EncodeCommandList(CommandList{{Opcode: 0x01, Delay: 300 * time.Millisecond}})
	assert.ErrorIs(t, err, ErrCommandEncoding)
	_, err = EncodeCommandList(CommandList{{Opcode: 0x01, Delay: 1500 * time.Microsecond}})
	assert.ErrorIs(t, err, ErrCommandEncoding)
}

func TestLoadCommandList(t *testing.T) {
	list, err := LoadCommandList(strings.NewReader(`
- {op: 0x01, delay: 150ms}
- {op: 0x3A, args: [0x05]}
- op: 0x2A
  args: [0, 2, 0, 129]
`))
	require.NoError(t, err)
	assert.Equal(t, CommandList{
		{Opcode: 0x01, Delay: 150 * time.Millisecond},
		{Opcode: 0x3A, Args: []byte{0x05}},
		{Opcode: 0x2A, Args: []byte{0, 2, 0, 129}},
	}, list)
	require.NoError(t, ST7735R.Check(list))
}

func TestLoadCommandListInvalid(t *testing.T) {
	tests := []struct {
		Name   string
		Script string
	}{
		{"unknown field", `- {op: 1, wait: 10ms}`},
		{"argument range", `- {op: 0x3A, args: [256]}`},
		{"negative delay", `- {op: 1, delay: -1ms}`},
		{"not a list", `op: 1`},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			_, err := LoadCommandList(strings.NewReader(test.Script))
			assert.Error(it, err)
		})
	}
}

func TestCommandListYAMLRoundTrip(t *testing.T) {
	list, _, err := BringUp(GreenTab, Rotate90)
	require.NoError(t, err)

	out, err := yaml.Marshal(list)
	require.NoError(t, err)

	back, err := LoadCommandList(strings.NewReader(string(out)))
	require.NoError(t, err)
	assert.Equal(t, list, back)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "0x3a 05 +10ms", Command{Opcode: 0x3A, Args: []byte{5}, Delay: 10 * time.Millisecond}.String())
}
