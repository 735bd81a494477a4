package framebuffer

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/BeatGlow/display-fsw/internal/ioctl"
)

const (
	// From <linux/fb.h>
	fbioGetVScreenInfo = 0x4600
	fbioGetFScreenInfo = 0x4602
)

// Device is an open Linux framebuffer device (fbdev).
type Device struct {
	f    *os.File
	fd   uintptr
	path string
	pix  []byte
}

// Open a Linux FrameBuffer device (fbdev) by name, typically /dev/fb[0..x].
func Open(name string) (*Device, error) {
	f, err := os.OpenFile(name, os.O_RDWR, os.ModeDevice)
	if err != nil {
		return nil, err
	}
	return &Device{
		f:    f,
		fd:   f.Fd(),
		path: name,
	}, nil
}

func (d *Device) String() string {
	return "framebuffer " + d.path
}

// Geometry queries the fixed and variable screen info.
func (d *Device) Geometry() (Geometry, error) {
	if d.f == nil {
		return Geometry{}, ErrClosed
	}

	info, err := ioctl.Fetch[linuxFrameBufferInfo](d.fd, fbioGetFScreenInfo)
	if err != nil {
		return Geometry{}, err
	}
	screenInfo, err := ioctl.Fetch[linuxVarScreenInfo](d.fd, fbioGetVScreenInfo)
	if err != nil {
		return Geometry{}, err
	}

	id := info.ID[:]
	if n := bytes.IndexByte(id, 0); n >= 0 {
		id = id[:n]
	}
	return Geometry{
		ID:           string(id),
		Width:        int(screenInfo.Xres),
		Height:       int(screenInfo.Yres),
		BitsPerPixel: int(screenInfo.BitsPerPixel),
		LineLength:   int(info.LineLength),
		MemLen:       int(info.SmemLen),
	}, nil
}

// Map the first length bytes of pixel memory, shared and read/write.
func (d *Device) Map(length int) ([]byte, error) {
	if d.f == nil {
		return nil, ErrClosed
	}
	if d.pix != nil {
		return nil, ErrMapped
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrLength, length)
	}

	pix, err := unix.Mmap(int(d.fd), 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	d.pix = pix
	return pix, nil
}

// Close unmaps the pixel memory, if mapped, and closes the framebuffer device. Closing an
// already closed device does nothing.
func (d *Device) Close() error {
	var err error
	if d.pix != nil {
		err = unix.Munmap(d.pix)
		d.pix = nil
	}
	if d.f != nil {
		if cerr := d.f.Close(); err == nil {
			err = cerr
		}
		d.f = nil
	}
	return err
}

type linuxFrameBufferInfo struct {
	ID         [16]byte  // Identification string eg "TT Builtin"
	SmemStart  uintptr   // Start of frame buffer mem
	SmemLen    uint32    // Length of frame buffer mem
	Type       uint32    // FB_TYPE_
	TypeAux    uint32    // Interleave for interleaved Planes
	Visual     uint32    // FB_VISUAL_
	Xpanstep   uint16    // Zero if no hardware panning
	Ypanstep   uint16    // Zero if no hardware panning
	Ywrapstep  uint16    // Zero if no hardware ywrap
	LineLength uint32    // Length of a line in bytes
	MmioStart  uintptr   // Start of Memory Mapped I/O (physical address)
	MmioLen    uint32    // Length of Memory Mapped I/O
	Accel      uint32    // Type of acceleration available
	Reserved   [3]uint16 // Capabilities and reserved
}

// linuxBitField for the color
type linuxBitField struct {
	Offset   uint32 // Beginning of bitfield
	Length   uint32 // Length of bitfield
	MsbRight uint32 // != 0 : Most significant bit is right
}

// linuxVarScreenInfo contains device independent changeable information about a frame buffer device and a specific video mode.
type linuxVarScreenInfo struct {
	Xres                    uint32
	Yres                    uint32
	XresVirtual             uint32
	YresVirtual             uint32
	Xoffset                 uint32
	Yoffset                 uint32
	BitsPerPixel            uint32
	Grayscale               uint32
	Red, Green, Blue, Alpha linuxBitField
	Nonstd                  uint32
	Activate                uint32
	Height                  uint32
	Width                   uint32
	AccelFlags              uint32
	Pixclock                uint32
	LeftMargin              uint32
	RightMargin             uint32
	UpperMargin             uint32
	LowerMargin             uint32
	HsyncLen                uint32
	VsyncLen                uint32
	Sync                    uint32
	Vmode                   uint32
	Rotate                  uint32
	Colorspace              uint32
	Reserved                [4]uint32
}
