// Package display brings up a single pixel display device from a validated hardware table.
//
// Two kinds of device are supported: a memory-mapped Linux framebuffer and an ST7735-family
// controller attached to a SPI bus with a GPIO data/command select line. A [Session] owns the
// open device for its whole lifetime, runs the controller bring-up [CommandList] through a
// [Sequencer] and exercises the device on request with a [PatternWriter].
package display

import (
	"os"
)

var debug bool

func init() {
	debug = os.Getenv("DISPLAY_DEBUG") != ""
}

// Rotation defines pixel rotation.
type Rotation uint8

// Supported rotations.
const (
	NoRotation Rotation = iota
	Rotate90            // Rotate 90° clock wise
	Rotate180           // Rotate 180°
	Rotate270           // Rotate 270° clock wise
)

func (r Rotation) String() string {
	switch r % 4 {
	case Rotate90:
		return "90°"
	case Rotate180:
		return "180°"
	case Rotate270:
		return "270°"
	default:
		return "0°"
	}
}

// Swapped reports whether the rotation swaps the width and height of the panel.
func (r Rotation) Swapped() bool {
	return r == Rotate90 || r == Rotate270
}

// ParseRotation parses a rotation in degrees or one of the aliases used on the command line.
func ParseRotation(s string) (Rotation, bool) {
	switch s {
	case "", "no", "0":
		return NoRotation, true
	case "90", "right", "cw":
		return Rotate90, true
	case "180", "flip":
		return Rotate180, true
	case "270", "left", "ccw":
		return Rotate270, true
	default:
		return NoRotation, false
	}
}
