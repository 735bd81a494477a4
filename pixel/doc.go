// Package pixel implements the 16-bit 5-6-5 RGB pixel format written to ST7735 controller RAM
// and 16 bpp framebuffers, compatible with Go's native [color.Color] interface.
package pixel
