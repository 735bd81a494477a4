package display

import (
	"github.com/BeatGlow/display-fsw/framebuffer"
)

// Transport is an open device link. A Transport is owned by exactly one Session.
type Transport interface {
	String() string

	// Close releases the device, calling it again is a no-op.
	Close() error
}

// Framebuffer is a memory mapped framebuffer transport.
type Framebuffer interface {
	Transport

	// Geometry queries the fixed and variable screen information.
	Geometry() (framebuffer.Geometry, error)

	// Map maps length bytes of pixel memory from offset 0. The mapping is released by Close.
	Map(length int) ([]byte, error)
}

// Bus is a byte oriented serial transport with a data/command select line.
type Bus interface {
	Transport

	// Write transfers one byte, with the select line in command or data position.
	Write(b byte, isCommand bool) error
}

// Resetter is implemented by buses that can pulse a hardware reset line.
type Resetter interface {
	Reset() error
}

// StatusReader is implemented by buses that can clock bytes back from the controller.
type StatusReader interface {
	ReadStatus(p []byte) error
}

// Opener opens the transport variant selected by a table.
type Opener interface {
	OpenFramebuffer(path string) (Framebuffer, error)
	OpenBus(t *Table) (Bus, error)
}

// DeviceOpener opens real device nodes.
type DeviceOpener struct{}

// OpenFramebuffer opens a Linux framebuffer device.
func (DeviceOpener) OpenFramebuffer(path string) (Framebuffer, error) {
	dev, err := framebuffer.Open(path)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// OpenBus opens the spidev node and GPIO lines described by the table.
func (DeviceOpener) OpenBus(t *Table) (Bus, error) {
	return OpenSPI(t)
}
