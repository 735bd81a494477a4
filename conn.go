package display

import (
	"errors"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"

	"github.com/BeatGlow/display-fsw/conn"
)

// Conn errors.
var (
	ErrDCPin  = errors.New("display: data/command (DC) GPIO pin is invalid")
	ErrClosed = errors.New("display: connection is closed")
)

// DefaultSpeedHz is the SPI clock used when the table does not set one.
const DefaultSpeedHz = 8_000_000

// ValidSPISpeeds are common valid SPI bus speeds.
var ValidSPISpeeds = []uint32{
	500_000,
	1_000_000,
	2_000_000,
	4_000_000,
	8_000_000,
	16_000_000,
	20_000_000,
	24_000_000,
	28_000_000,
	32_000_000,
	36_000_000,
	40_000_000,
	48_000_000,
	50_000_000,
	52_000_000,
}

// ValidSPISpeed reports whether hz is one of ValidSPISpeeds.
func ValidSPISpeed(hz uint32) bool {
	for _, speed := range ValidSPISpeeds {
		if speed == hz {
			return true
		}
	}
	return false
}

// spiPort is the subset of conn.SPI used by spiConn.
type spiPort interface {
	String() string
	Close() error
	Read([]byte) (int, error)
	Write([]byte) (int, error)
	SetMode(conn.SPIMode) error
	SetMaxSpeed(hz int) error
}

// SPIConfig describes the SPI link of a bus attached controller.
type SPIConfig struct {
	Mode    conn.SPIMode
	SpeedHz uint32
	DataLow bool
	Reset   gpio.PinOut
	DC      gpio.PinOut
	CE      gpio.PinOut
}

type spiConn struct {
	bus     spiPort
	speed   physic.Frequency
	reset   gpio.PinOut
	dc      gpio.PinOut
	dcLevel gpio.Level
	dcSet   bool
	cs      gpio.PinOut
	dataLow bool
	closed  bool
	sleep   func(time.Duration)
	buf     [1]byte
}

// OpenSPI opens the spidev node and the GPIO lines named by the table.
func OpenSPI(t *Table) (Bus, error) {
	dc, err := pinByLine(t.DCLine)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, ErrDCPin
	}
	reset, err := pinByLine(t.ResetLine)
	if err != nil {
		return nil, err
	}
	ce, err := pinByLine(t.ChipSelect)
	if err != nil {
		return nil, err
	}

	port, err := conn.OpenSPIPath(t.DevicePath)
	if err != nil {
		return nil, err
	}

	c, err := newSPIConn(port, &SPIConfig{
		Mode:    conn.SPIMode(t.SPIMode),
		SpeedHz: t.SpeedHz,
		Reset:   reset,
		DC:      dc,
		CE:      ce,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// pinByLine resolves a GPIO number through the periph.io registry, NoLine gives nil.
func pinByLine(line uint16) (gpio.PinOut, error) {
	if line == NoLine {
		return nil, nil
	}
	name := fmt.Sprintf("GPIO%d", line)
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("display: GPIO pin %s not found", name)
	}
	return p, nil
}

// newSPIConn programs the link on an open port. The port is closed on failure.
func newSPIConn(port spiPort, config *SPIConfig) (*spiConn, error) {
	if config.DC == nil || config.DC == gpio.INVALID {
		_ = port.Close()
		return nil, ErrDCPin
	}

	speed := config.SpeedHz
	if speed == 0 {
		speed = DefaultSpeedHz
	}
	if !ValidSPISpeed(speed) {
		_ = port.Close()
		return nil, fmt.Errorf("display: invalid SPI speed %dHz", speed)
	}

	if err := port.SetMode(config.Mode); err != nil {
		_ = port.Close()
		return nil, err
	}
	if err := port.SetMaxSpeed(int(speed)); err != nil {
		_ = port.Close()
		return nil, err
	}

	c := &spiConn{
		bus:     port,
		speed:   physic.Frequency(speed) * physic.Hertz,
		dataLow: config.DataLow,
		reset:   config.Reset,
		dc:      config.DC,
		cs:      config.CE,
		sleep:   time.Sleep,
	}
	if err := c.updateCS(gpio.High); err != nil {
		_ = port.Close()
		return nil, err
	}
	return c, nil
}

func (c *spiConn) String() string {
	return fmt.Sprintf("SPI bus %s at %s", c.bus, c.speed)
}

func (c *spiConn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.bus.Close()
}

// Reset pulses the reset line, if there is one.
func (c *spiConn) Reset() (err error) {
	if c.reset == nil {
		return nil
	}
	if err = c.reset.Out(gpio.High); err != nil {
		return
	}
	c.sleep(100 * time.Millisecond)
	if err = c.reset.Out(gpio.Low); err != nil {
		return
	}
	c.sleep(100 * time.Millisecond)
	if err = c.reset.Out(gpio.High); err != nil {
		return
	}
	c.sleep(10 * time.Millisecond)
	return
}

func (c *spiConn) updateDC(level gpio.Level) error {
	if !c.dcSet || c.dcLevel != level {
		if err := c.dc.Out(level); err != nil {
			return err
		}
		c.dcLevel = level
		c.dcSet = true
	}
	return nil
}

func (c *spiConn) updateCS(level gpio.Level) error {
	if c.cs == nil {
		return nil
	}
	return c.cs.Out(level)
}

// Write transfers one byte with the DC line selecting command or data.
func (c *spiConn) Write(b byte, isCommand bool) (err error) {
	if c.closed {
		return ErrClosed
	}
	level := gpio.Level(!c.dataLow)
	if isCommand {
		level = gpio.Level(c.dataLow)
	}
	if err = c.updateDC(level); err != nil {
		return
	}
	if err = c.updateCS(gpio.Low); err != nil {
		return
	}
	c.buf[0] = b
	if _, err = c.bus.Write(c.buf[:]); err != nil {
		_ = c.updateCS(gpio.High)
		return
	}
	if debug {
		if isCommand {
			log.Printf("spi: command %#02x", b)
		} else {
			log.Printf("spi: data %#02x", b)
		}
	}
	return c.updateCS(gpio.High)
}

// ReadStatus clocks len(p) bytes back from the controller in data mode.
func (c *spiConn) ReadStatus(p []byte) (err error) {
	if c.closed {
		return ErrClosed
	}
	if err = c.updateDC(gpio.Level(!c.dataLow)); err != nil {
		return
	}
	if err = c.updateCS(gpio.Low); err != nil {
		return
	}
	if _, err = c.bus.Read(p); err != nil {
		_ = c.updateCS(gpio.High)
		return
	}
	return c.updateCS(gpio.High)
}
