package display

import (
	"fmt"
	"log"
	"strings"
)

// Registers (from st7735.pdf).
const (
	st7735NOP     = 0x00
	st7735SWRESET = 0x01
	st7735RDDID   = 0x04
	st7735RDDST   = 0x09
	st7735SLPIN   = 0x10
	st7735SLPOUT  = 0x11
	st7735PTLON   = 0x12
	st7735NORON   = 0x13
	st7735INVOFF  = 0x20
	st7735INVON   = 0x21
	st7735GAMSET  = 0x26
	st7735DISPOFF = 0x28
	st7735DISPON  = 0x29
	st7735CASET   = 0x2A
	st7735RASET   = 0x2B
	st7735RAMWR   = 0x2C
	st7735PTLAR   = 0x30
	st7735SCRLAR  = 0x33
	st7735TEOFF   = 0x34
	st7735TEON    = 0x35
	st7735MADCTL  = 0x36
	st7735VSCSAD  = 0x37
	st7735IDMOFF  = 0x38
	st7735IDMON   = 0x39
	st7735COLMOD  = 0x3A
	st7735FRMCTR1 = 0xB1
	st7735FRMCTR2 = 0xB2
	st7735FRMCTR3 = 0xB3
	st7735INVCTR  = 0xB4
	st7735DISSET5 = 0xB6
	st7735PWCTR1  = 0xC0
	st7735PWCTR2  = 0xC1
	st7735PWCTR3  = 0xC2
	st7735PWCTR4  = 0xC3
	st7735PWCTR5  = 0xC4
	st7735VMCTR1  = 0xC5
	st7735VMOFCTR = 0xC7
	st7735PWCTR6  = 0xFC
	st7735GMCTRP1 = 0xE0
	st7735GMCTRN1 = 0xE1
)

// Memory Data Access Control (MADCTL) bit fields.
const (
	_                           byte = 1 << iota // D0: reserved
	_                                            // D1: reserved
	st7735DisplayDataLatchOrder                  // D2: MH
	st7735BGROrder                               // D3: RGB/BGR
	st7735LineAddressOrder                       // D4: ML
	st7735PageColumnOrder                        // D5: MV
	st7735ColumnAddressOrder                     // D6: MX
	st7735PageAddressOrder                       // D7: MY
)

// Controller describes a display controller model: its RAM size and the number of argument
// bytes each write command takes according to the datasheet.
type Controller struct {
	Name string

	// Columns and Rows of controller RAM in native (portrait) orientation.
	Columns int
	Rows    int

	args map[byte]int
}

// ArgCount returns the datasheet argument count of an opcode.
func (c *Controller) ArgCount(opcode byte) (int, bool) {
	n, ok := c.args[opcode]
	return n, ok
}

// Check verifies every command of a list against the datasheet argument counts.
func (c *Controller) Check(list CommandList) error {
	for i, cmd := range list {
		n, ok := c.args[cmd.Opcode]
		if !ok {
			return &Error{Kind: ConfigInvalid, Op: "check " + c.Name, Step: i, Err: fmt.Errorf("%w: %#02x", ErrUnknownOpcode, cmd.Opcode)}
		}
		if len(cmd.Args) != n {
			return &Error{Kind: ConfigInvalid, Op: "check " + c.Name, Step: i, Err: fmt.Errorf("%w: %#02x takes %d, got %d", ErrArgCount, cmd.Opcode, n, len(cmd.Args))}
		}
	}
	return nil
}

// Controllers.
var (
	// ST7735R covers the ST7735R and ST7735S.
	ST7735R = &Controller{
		Name:    "ST7735R",
		Columns: 132,
		Rows:    162,
		args: map[byte]int{
			st7735NOP:     0,
			st7735SWRESET: 0,
			st7735RDDID:   0,
			st7735RDDST:   0,
			st7735SLPIN:   0,
			st7735SLPOUT:  0,
			st7735PTLON:   0,
			st7735NORON:   0,
			st7735INVOFF:  0,
			st7735INVON:   0,
			st7735GAMSET:  1,
			st7735DISPOFF: 0,
			st7735DISPON:  0,
			st7735CASET:   4,
			st7735RASET:   4,
			st7735PTLAR:   4,
			st7735SCRLAR:  6,
			st7735TEOFF:   0,
			st7735TEON:    1,
			st7735MADCTL:  1,
			st7735VSCSAD:  2,
			st7735IDMOFF:  0,
			st7735IDMON:   0,
			st7735COLMOD:  1,
			st7735FRMCTR1: 3,
			st7735FRMCTR2: 3,
			st7735FRMCTR3: 6,
			st7735INVCTR:  1,
			st7735PWCTR1:  3,
			st7735PWCTR2:  1,
			st7735PWCTR3:  2,
			st7735PWCTR4:  2,
			st7735PWCTR5:  2,
			st7735VMCTR1:  1,
			st7735VMOFCTR: 1,
			st7735GMCTRP1: 16,
			st7735GMCTRN1: 16,
		},
	}

	// ST7735B is the first generation ST7735 with the older power control layout.
	ST7735B = &Controller{
		Name:    "ST7735B",
		Columns: 132,
		Rows:    162,
		args: map[byte]int{
			st7735NOP:     0,
			st7735SWRESET: 0,
			st7735RDDID:   0,
			st7735RDDST:   0,
			st7735SLPIN:   0,
			st7735SLPOUT:  0,
			st7735PTLON:   0,
			st7735NORON:   0,
			st7735INVOFF:  0,
			st7735INVON:   0,
			st7735GAMSET:  1,
			st7735DISPOFF: 0,
			st7735DISPON:  0,
			st7735CASET:   4,
			st7735RASET:   4,
			st7735PTLAR:   4,
			st7735TEOFF:   0,
			st7735TEON:    1,
			st7735MADCTL:  1,
			st7735COLMOD:  1,
			st7735FRMCTR1: 3,
			st7735FRMCTR2: 3,
			st7735FRMCTR3: 6,
			st7735INVCTR:  1,
			st7735DISSET5: 2,
			st7735PWCTR1:  2,
			st7735PWCTR2:  1,
			st7735PWCTR3:  2,
			st7735PWCTR4:  2,
			st7735PWCTR5:  2,
			st7735VMCTR1:  2,
			st7735PWCTR6:  2,
			st7735GMCTRP1: 16,
			st7735GMCTRN1: 16,
		},
	}
)

// Initialization tables in the compact encoding: count, then opcode, argc (|0x80 when a delay
// byte follows), arguments and delay in ms (255 = 500ms).
var (
	st7735BInit = []byte{
		18,
		st7735SWRESET, 0x80, 50,
		st7735SLPOUT, 0x80, 255,
		st7735COLMOD, 0x81, 0x05, 10, // 16-bit color
		st7735FRMCTR1, 0x83, 0x00, 0x06, 0x03, 10,
		st7735MADCTL, 1, 0x08,
		st7735DISSET5, 2, 0x15, 0x02,
		st7735INVCTR, 1, 0x00,
		st7735PWCTR1, 0x82, 0x02, 0x70, 10,
		st7735PWCTR2, 1, 0x05,
		st7735PWCTR3, 2, 0x01, 0x02,
		st7735VMCTR1, 0x82, 0x3C, 0x38, 10,
		st7735PWCTR6, 2, 0x11, 0x15,
		st7735GMCTRP1, 16, 0x09, 0x16, 0x09, 0x20, 0x21, 0x1B, 0x13, 0x19, 0x17, 0x15, 0x1E, 0x2B, 0x04, 0x05, 0x02, 0x0E,
		st7735GMCTRN1, 0x90, 0x0B, 0x14, 0x08, 0x1E, 0x22, 0x1D, 0x18, 0x1E, 0x1B, 0x1A, 0x24, 0x2B, 0x06, 0x06, 0x02, 0x0F, 10,
		st7735CASET, 4, 0x00, 0x02, 0x00, 0x81, // 2..129
		st7735RASET, 4, 0x00, 0x01, 0x00, 0xA0, // 1..160
		st7735NORON, 0x80, 10,
		st7735DISPON, 0x80, 255,
	}

	st7735RInit1 = []byte{
		15,
		st7735SWRESET, 0x80, 150,
		st7735SLPOUT, 0x80, 255,
		st7735FRMCTR1, 3, 0x01, 0x2C, 0x2D,
		st7735FRMCTR2, 3, 0x01, 0x2C, 0x2D,
		st7735FRMCTR3, 6, 0x01, 0x2C, 0x2D, 0x01, 0x2C, 0x2D,
		st7735INVCTR, 1, 0x07,
		st7735PWCTR1, 3, 0xA2, 0x02, 0x84,
		st7735PWCTR2, 1, 0xC5,
		st7735PWCTR3, 2, 0x0A, 0x00,
		st7735PWCTR4, 2, 0x8A, 0x2A,
		st7735PWCTR5, 2, 0x8A, 0xEE,
		st7735VMCTR1, 1, 0x0E,
		st7735INVOFF, 0,
		st7735MADCTL, 1, 0xC8,
		st7735COLMOD, 1, 0x05, // 16-bit color
	}

	st7735RInit2Green = []byte{
		2,
		st7735CASET, 4, 0x00, 0x02, 0x00, 0x7F + 0x02,
		st7735RASET, 4, 0x00, 0x01, 0x00, 0x9F + 0x01,
	}

	st7735RInit2Red = []byte{
		2,
		st7735CASET, 4, 0x00, 0x00, 0x00, 0x7F,
		st7735RASET, 4, 0x00, 0x00, 0x00, 0x9F,
	}

	st7735RInit2Green144 = []byte{
		2,
		st7735CASET, 4, 0x00, 0x00, 0x00, 0x7F,
		st7735RASET, 4, 0x00, 0x00, 0x00, 0x7F,
	}

	st7735RInit2Mini = []byte{
		2,
		st7735CASET, 4, 0x00, 0x00, 0x00, 0x4F,
		st7735RASET, 4, 0x00, 0x00, 0x00, 0x9F,
	}

	st7735RInit3 = []byte{
		4,
		st7735GMCTRP1, 16, 0x02, 0x1C, 0x07, 0x12, 0x37, 0x32, 0x29, 0x2D, 0x29, 0x25, 0x2B, 0x39, 0x00, 0x01, 0x03, 0x10,
		st7735GMCTRN1, 16, 0x03, 0x1D, 0x07, 0x06, 0x2E, 0x2C, 0x29, 0x2D, 0x2E, 0x2E, 0x37, 0x3F, 0x00, 0x00, 0x02, 0x10,
		st7735NORON, 0x80, 10,
		st7735DISPON, 0x80, 100,
	}
)

// Variant is a controller model and manufacturer tab variant. Tab variants shift the default
// RAM offsets and subpixel order.
type Variant uint16

// Variants.
const (
	GreenTab    Variant = iota // 1.8" ST7735R, green tab
	RedTab                     // 1.8" ST7735R, red tab
	BlackTab                   // 1.8" ST7735S, black tab
	GreenTab144                // 1.44" ST7735R, green tab
	Mini160x80                 // 0.96" 160x80 mini
	HalloWing                  // Adafruit HalloWing 1.44"
	ST7735BTab                 // first generation ST7735B
)

type variantInfo struct {
	name       string
	controller *Controller
	init       CommandList

	// Native (0°) panel size and RAM offsets.
	width, height      int
	colStart, rowStart int

	// rowStartFlipped is the row offset for 180° and 270°, if it differs.
	rowStartFlipped int
	order           ColorOrder
}

var variants map[Variant]*variantInfo

func init() {
	var (
		r1 = mustDecode(ST7735R, st7735RInit1)
		r3 = mustDecode(ST7735R, st7735RInit3)
	)
	variants = map[Variant]*variantInfo{
		GreenTab: {
			name: "greentab", controller: ST7735R,
			init:  Concat(r1, mustDecode(ST7735R, st7735RInit2Green), r3),
			width: 128, height: 160, colStart: 2, rowStart: 1, rowStartFlipped: 1,
			order: BGR,
		},
		RedTab: {
			name: "redtab", controller: ST7735R,
			init:  Concat(r1, mustDecode(ST7735R, st7735RInit2Red), r3),
			width: 128, height: 160,
			order: BGR,
		},
		BlackTab: {
			name: "blacktab", controller: ST7735R,
			init:  Concat(r1, mustDecode(ST7735R, st7735RInit2Red), r3),
			width: 128, height: 160,
			order: RGB,
		},
		GreenTab144: {
			name: "greentab144", controller: ST7735R,
			init:  Concat(r1, mustDecode(ST7735R, st7735RInit2Green144), r3),
			width: 128, height: 128, colStart: 2, rowStart: 3, rowStartFlipped: 1,
			order: BGR,
		},
		Mini160x80: {
			name: "mini160x80", controller: ST7735R,
			init:  Concat(r1, mustDecode(ST7735R, st7735RInit2Mini), r3),
			width: 80, height: 160, colStart: 24,
			order: RGB,
		},
		HalloWing: {
			name: "hallowing", controller: ST7735R,
			init:  Concat(r1, mustDecode(ST7735R, st7735RInit2Green144), r3),
			width: 128, height: 128, colStart: 2, rowStart: 3, rowStartFlipped: 1,
			order: BGR,
		},
		ST7735BTab: {
			name: "st7735b", controller: ST7735B,
			init:  mustDecode(ST7735B, st7735BInit),
			width: 128, height: 160,
			order: BGR,
		},
	}
}

func (v Variant) String() string {
	if info, ok := variants[v]; ok {
		return info.name
	}
	return fmt.Sprintf("variant(%d)", uint16(v))
}

// ParseVariant parses a variant name as printed by Variant.String.
func ParseVariant(s string) (Variant, error) {
	s = strings.ToLower(s)
	for v, info := range variants {
		if info.name == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownVariant, s)
}

// Controller returns the controller model of the variant.
func (v Variant) Controller() *Controller {
	if info, ok := variants[v]; ok {
		return info.controller
	}
	return nil
}

// WindowFor derives the address window of a variant at the given rotation.
func WindowFor(v Variant, rotation Rotation) (AddressWindow, error) {
	info, ok := variants[v]
	if !ok {
		return AddressWindow{}, fmt.Errorf("%w %d", ErrUnknownVariant, uint16(v))
	}
	rotation &= 3

	rowStart := info.rowStart
	if rotation >= Rotate180 {
		rowStart = info.rowStartFlipped
	}

	w := AddressWindow{
		Rotation: rotation,
		Order:    info.order,
	}
	switch rotation {
	case NoRotation:
		w.MADCTL = st7735ColumnAddressOrder | st7735PageAddressOrder
	case Rotate90:
		w.MADCTL = st7735PageAddressOrder | st7735PageColumnOrder
	case Rotate180:
		w.MADCTL = 0
	case Rotate270:
		w.MADCTL = st7735ColumnAddressOrder | st7735PageColumnOrder
	}
	if info.order == BGR {
		w.MADCTL |= st7735BGROrder
	}

	if rotation.Swapped() {
		w.Width, w.Height = info.height, info.width
		w.XStart, w.YStart = rowStart, info.colStart
	} else {
		w.Width, w.Height = info.width, info.height
		w.XStart, w.YStart = info.colStart, rowStart
	}

	if err := w.within(info.controller.Columns, info.controller.Rows); err != nil {
		return AddressWindow{}, err
	}
	if debug {
		log.Printf("st7735: %s window %s", info.name, w)
	}
	return w, nil
}

// BringUp returns the complete initialization list of a variant at the given rotation: the
// variant's power-on sequence followed by the memory access control and address window
// commands.
func BringUp(v Variant, rotation Rotation) (CommandList, AddressWindow, error) {
	w, err := WindowFor(v, rotation)
	if err != nil {
		return nil, AddressWindow{}, err
	}
	info := variants[v]
	list := Concat(info.init, w.Commands())
	if err = info.controller.Check(list); err != nil {
		return nil, AddressWindow{}, err
	}
	return list, w, nil
}

// StatusList is the read display status command sent when exercising a bus attached
// controller.
func StatusList() CommandList {
	return CommandList{{Opcode: st7735RDDST}}
}

// StatusLength is the number of status bytes returned by RDDST.
const StatusLength = 4
