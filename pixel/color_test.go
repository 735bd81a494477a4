package pixel

import (
	"image/color"
	"testing"
)

func TestCRGB16(t *testing.T) {
	tests := []struct {
		Name    string
		Color   CRGB16
		R, G, B uint32
	}{
		{"black", Black, 0, 0, 0},
		{"red", Red, 0xffff, 0, 0},
		{"green", Green, 0, 0xffff, 0},
		{"blue", Blue, 0, 0, 0xffff},
		{"white", White, 0xffff, 0xffff, 0xffff},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			r, g, b, a := test.Color.RGBA()
			if r != test.R || g != test.G || b != test.B || a != 0xffff {
				it.Errorf("expected %#04x %#04x %#04x, got %#04x %#04x %#04x", test.R, test.G, test.B, r, g, b)
			}
		})
	}
}

func TestCRGB16Model(t *testing.T) {
	tests := []struct {
		Name  string
		Color color.Color
		Want  uint16
	}{
		{"rgba red", color.RGBA{R: 0xff, A: 0xff}, 0xF800},
		{"rgba green", color.RGBA{G: 0xff, A: 0xff}, 0x07E0},
		{"rgba blue", color.RGBA{B: 0xff, A: 0xff}, 0x001F},
		{"gray white", color.Gray{Y: 0xff}, 0xFFFF},
		{"black", color.Black, 0x0000},
		{"identity", CRGB16{0x1234}, 0x1234},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			if v := CRGB16Model.Convert(test.Color).(CRGB16).V; v != test.Want {
				it.Errorf("expected %#04x, got %#04x", test.Want, v)
			}
		})
	}
}

func TestFill(t *testing.T) {
	p := make([]byte, 5)
	if n := Fill(p, Red); n != 2 {
		t.Fatalf("expected 2 pixels, got %d", n)
	}
	want := []byte{0xF8, 0x00, 0xF8, 0x00, 0x00}
	for i := range want {
		if p[i] != want[i] {
			t.Errorf("byte %d: expected %#02x, got %#02x", i, want[i], p[i])
		}
	}
}
