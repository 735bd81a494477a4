// Package framebuffer provides access to the operating system's native framebuffer.
//
// A [Device] is opened with [Open], queried with [Device.Geometry] and its pixel memory mapped
// into the process with [Device.Map]. Close releases the mapping before the device node.
package framebuffer

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrNotSupported = errors.New("framebuffer: not supported")
	ErrClosed       = errors.New("framebuffer: device is closed")
	ErrMapped       = errors.New("framebuffer: device is already mapped")
	ErrLength       = errors.New("framebuffer: invalid map length")
)

// Geometry holds the fixed and variable screen information of a framebuffer.
type Geometry struct {
	// ID is the driver identification string, eg "fb_st7735r".
	ID string

	// Width and Height are the visible resolution in pixels.
	Width  int
	Height int

	BitsPerPixel int

	// LineLength is the length of a line in bytes.
	LineLength int

	// MemLen is the length of the mappable framebuffer memory.
	MemLen int
}

// FrameSize is the number of bytes of one visible frame.
func (g Geometry) FrameSize() int {
	return g.Width * g.Height * (g.BitsPerPixel / 8)
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d %dbpp", g.Width, g.Height, g.BitsPerPixel)
}
