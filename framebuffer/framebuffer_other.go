//go:build !linux

package framebuffer

// Device is unavailable on this platform.
type Device struct{}

// Open always fails with ErrNotSupported.
func Open(_ string) (*Device, error) {
	return nil, ErrNotSupported
}

func (d *Device) String() string { return "framebuffer (unsupported)" }

func (d *Device) Geometry() (Geometry, error) { return Geometry{}, ErrNotSupported }

func (d *Device) Map(_ int) ([]byte, error) { return nil, ErrNotSupported }

func (d *Device) Close() error { return nil }
