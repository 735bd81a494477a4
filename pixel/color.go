package pixel

import "image/color"

// CRGB16Model converts any color to CRGB16.
var CRGB16Model color.Model = color.ModelFunc(crgb16Model)

// Primary colors.
var (
	Black = CRGB16{0x0000}
	Red   = CRGB16{0xF800}
	Green = CRGB16{0x07E0}
	Blue  = CRGB16{0x001F}
	White = CRGB16{0xFFFF}
)

// CRGB16 represents a 16-bit 5-6-5 RGB color.
type CRGB16 struct {
	// CRed, 5, CGreen, 6, CBlue, 5
	V uint16
}

func (c CRGB16) RGBA() (r, g, b, a uint32) {
	// Build a 5- or 6-bit value at the top of the low byte of each component.
	red := (c.V & 0xF800) >> 8
	grn := (c.V & 0x07E0) >> 3
	blu := (c.V & 0x001F) << 3
	// Duplicate the high bits in the low bits.
	red |= red >> 5
	grn |= grn >> 6
	blu |= blu >> 5
	// Duplicate the whole value in the high byte.
	red |= red << 8
	grn |= grn << 8
	blu |= blu << 8
	return uint32(red), uint32(grn), uint32(blu), 0xffff
}

// Bytes returns the color in controller RAM byte order, high byte first.
func (c CRGB16) Bytes() [2]byte {
	return [2]byte{byte(c.V >> 8), byte(c.V)}
}

func crgb16Model(c color.Color) color.Color {
	if c, ok := c.(CRGB16); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	r = (r & 0xF800)
	g = (g & 0xFC00) >> 5
	b = (b & 0xF800) >> 11
	return CRGB16{uint16(r | g | b)}
}

// Fill writes c to every whole pixel of p and returns the number of pixels written. A trailing
// odd byte is left untouched.
func Fill(p []byte, c color.Color) int {
	v := crgb16Model(c).(CRGB16).Bytes()
	n := len(p) / 2
	for i := 0; i < n; i++ {
		p[i*2] = v[0]
		p[i*2+1] = v[1]
	}
	return n
}
