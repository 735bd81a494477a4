package display

import (
	"fmt"
)

// ColorOrder is the subpixel order of the panel.
type ColorOrder uint8

// Color orders.
const (
	RGB ColorOrder = iota
	BGR
)

func (o ColorOrder) String() string {
	if o == BGR {
		return "BGR"
	}
	return "RGB"
}

// AddressWindow is the part of the controller RAM that pixel writes target, derived once from
// the controller variant and rotation during bring-up.
type AddressWindow struct {
	XStart int
	YStart int
	Width  int
	Height int

	Rotation Rotation
	Order    ColorOrder

	// MADCTL is the memory data access control register value for this rotation and order.
	MADCTL byte
}

func (w AddressWindow) String() string {
	return fmt.Sprintf("%dx%d+%d+%d %s %s madctl=%#02x", w.Width, w.Height, w.XStart, w.YStart, w.Rotation, w.Order, w.MADCTL)
}

// Commands returns the memory access control and column/row address set commands for the
// window.
func (w AddressWindow) Commands() CommandList {
	var (
		x0 = w.XStart
		y0 = w.YStart
		x1 = w.XStart + w.Width - 1
		y1 = w.YStart + w.Height - 1
	)
	return CommandList{
		{Opcode: st7735MADCTL, Args: []byte{w.MADCTL}},
		{Opcode: st7735CASET, Args: []byte{byte(x0 >> 8), byte(x0), byte(x1 >> 8), byte(x1)}}, // Column address
		{Opcode: st7735RASET, Args: []byte{byte(y0 >> 8), byte(y0), byte(y1 >> 8), byte(y1)}}, // Row address
	}
}

// within checks the window against a controller RAM of cols x rows in native orientation.
func (w AddressWindow) within(cols, rows int) error {
	if w.Rotation.Swapped() {
		cols, rows = rows, cols
	}
	if w.Width <= 0 || w.Height <= 0 || w.XStart < 0 || w.YStart < 0 ||
		w.XStart+w.Width > cols || w.YStart+w.Height > rows {
		return fmt.Errorf("%w: %s exceeds %dx%d", ErrWindowBounds, w, cols, rows)
	}
	return nil
}
