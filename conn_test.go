package display

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/BeatGlow/display-fsw/conn"
)

type transfer struct {
	dc   gpio.Level
	cs   gpio.Level
	data byte
}

// fakePort records the DC and CS line levels at the time of each transfer.
type fakePort struct {
	dc, cs    *gpiotest.Pin
	transfers []transfer
	mode      conn.SPIMode
	speed     int
	closed    int
	writeErr  error
	modeErr   error
	read      []byte
}

func (p *fakePort) String() string { return "fake spidev" }

func (p *fakePort) Close() error {
	p.closed++
	return nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	return copy(b, p.read), nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	for _, v := range b {
		t := transfer{dc: p.dc.Read(), data: v}
		if p.cs != nil {
			t.cs = p.cs.Read()
		}
		p.transfers = append(p.transfers, t)
	}
	return len(b), nil
}

func (p *fakePort) SetMode(mode conn.SPIMode) error {
	p.mode = mode
	return p.modeErr
}

func (p *fakePort) SetMaxSpeed(hz int) error {
	p.speed = hz
	return nil
}

func newTestConn(t *testing.T, config *SPIConfig) (*spiConn, *fakePort) {
	t.Helper()
	dc := &gpiotest.Pin{N: "GPIO24", Num: 24}
	cs := &gpiotest.Pin{N: "GPIO8", Num: 8}
	port := &fakePort{dc: dc, cs: cs}
	config.DC, config.CE = dc, cs
	c, err := newSPIConn(port, config)
	require.NoError(t, err)
	c.sleep = func(time.Duration) {}
	return c, port
}

func TestSPIConnWrite(t *testing.T) {
	c, port := newTestConn(t, &SPIConfig{Mode: conn.SPIMode3, SpeedHz: 16_000_000})
	assert.Equal(t, conn.SPIMode3, port.mode)
	assert.Equal(t, 16_000_000, port.speed)
	assert.Equal(t, gpio.High, port.cs.Read(), "chip select idles high")

	require.NoError(t, c.Write(st7735COLMOD, true))
	require.NoError(t, c.Write(0x05, false))

	assert.Equal(t, []transfer{
		{dc: gpio.Low, cs: gpio.Low, data: st7735COLMOD},
		{dc: gpio.High, cs: gpio.Low, data: 0x05},
	}, port.transfers)
	assert.Equal(t, gpio.High, port.cs.Read())
}

func TestSPIConnDataLow(t *testing.T) {
	c, port := newTestConn(t, &SPIConfig{DataLow: true})
	assert.Equal(t, DefaultSpeedHz, port.speed)

	require.NoError(t, c.Write(st7735DISPON, true))
	require.NoError(t, c.Write(0x00, false))
	assert.Equal(t, gpio.High, port.transfers[0].dc)
	assert.Equal(t, gpio.Low, port.transfers[1].dc)
}

func TestSPIConnFirstCommandDrivesDC(t *testing.T) {
	c, port := newTestConn(t, &SPIConfig{})
	port.dc.L = gpio.High

	require.NoError(t, c.Write(st7735NOP, true))
	assert.Equal(t, gpio.Low, port.transfers[0].dc)
}

func TestSPIConnWriteError(t *testing.T) {
	c, port := newTestConn(t, &SPIConfig{})
	port.writeErr = errors.New("EIO")
	assert.Error(t, c.Write(st7735NOP, true))
	assert.Equal(t, gpio.High, port.cs.Read(), "chip select released after failure")
}

func TestSPIConnClose(t *testing.T) {
	c, port := newTestConn(t, &SPIConfig{})
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, port.closed)
	assert.ErrorIs(t, c.Write(st7735NOP, true), ErrClosed)
	assert.ErrorIs(t, c.ReadStatus(make([]byte, 4)), ErrClosed)
}

func TestSPIConnReset(t *testing.T) {
	reset := &gpiotest.Pin{N: "GPIO25", Num: 25}
	c, _ := newTestConn(t, &SPIConfig{Reset: reset})

	var sleeps []time.Duration
	c.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	require.NoError(t, c.Reset())
	assert.Equal(t, gpio.High, reset.Read())
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 10 * time.Millisecond}, sleeps)

	// Without a reset line Reset does nothing.
	c, _ = newTestConn(t, &SPIConfig{})
	assert.NoError(t, c.Reset())
}

func TestSPIConnReadStatus(t *testing.T) {
	c, port := newTestConn(t, &SPIConfig{})
	port.read = []byte{0x9c, 0x61, 0x00, 0x00}

	status := make([]byte, 4)
	require.NoError(t, c.ReadStatus(status))
	assert.Equal(t, port.read, status)
	assert.Equal(t, gpio.High, port.dc.Read(), "status is clocked in data mode")
}

func TestNewSPIConnInvalid(t *testing.T) {
	port := new(fakePort)
	_, err := newSPIConn(port, &SPIConfig{})
	assert.ErrorIs(t, err, ErrDCPin)
	assert.Equal(t, 1, port.closed)

	port = new(fakePort)
	_, err = newSPIConn(port, &SPIConfig{DC: &gpiotest.Pin{N: "GPIO24"}, SpeedHz: 12345})
	assert.Error(t, err)
	assert.Equal(t, 1, port.closed)

	port = &fakePort{modeErr: errors.New("EINVAL")}
	_, err = newSPIConn(port, &SPIConfig{DC: &gpiotest.Pin{N: "GPIO24"}})
	assert.Error(t, err)
	assert.Equal(t, 1, port.closed)
}

func TestPinByLine(t *testing.T) {
	p, err := pinByLine(NoLine)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = pinByLine(60000)
	assert.Error(t, err)
}

func TestOpenSPIMissingDevice(t *testing.T) {
	_, err := conn.OpenSPIPath("/dev/spidev-does-not-exist")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidSPISpeed(t *testing.T) {
	assert.True(t, ValidSPISpeed(DefaultSpeedHz))
	assert.False(t, ValidSPISpeed(1))
}
