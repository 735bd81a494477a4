package display

import (
	"fmt"
	"os"
)

// Validate decides whether a candidate table may be put into service.
//
// Structural problems are reported as ConfigInvalid without touching the filesystem; a device
// node that cannot be stat'ed is reported as DeviceNotFound. The device is never opened.
func Validate(t *Table) error {
	if t == nil {
		return newError(ConfigInvalid, "validate", "", fmt.Errorf("no table"))
	}
	if err := t.check(); err != nil {
		return newError(ConfigInvalid, "validate", t.DevicePath, err)
	}
	if _, err := os.Stat(t.DevicePath); err != nil {
		return newError(DeviceNotFound, "validate", t.DevicePath, err)
	}
	return nil
}

func (t *Table) check() error {
	if t.DevicePath == "" {
		return fmt.Errorf("empty device path")
	}
	if len(t.DevicePath) >= DevicePathSize {
		return fmt.Errorf("device path longer than %d bytes", DevicePathSize-1)
	}
	if t.Rotation > Rotate270 {
		return fmt.Errorf("invalid rotation %d", t.Rotation)
	}

	switch t.Transport {
	case TransportFramebuffer:
		return nil
	case TransportSPI:
	default:
		return fmt.Errorf("unknown transport %d", uint16(t.Transport))
	}

	if _, ok := variants[t.Variant]; !ok {
		return fmt.Errorf("%w %d", ErrUnknownVariant, uint16(t.Variant))
	}
	if t.SPIMode > 3 {
		return fmt.Errorf("invalid SPI mode %d", t.SPIMode)
	}
	if t.SpeedHz != 0 && !ValidSPISpeed(t.SpeedHz) {
		return fmt.Errorf("invalid SPI speed %dHz", t.SpeedHz)
	}
	if t.DCLine == NoLine {
		return ErrDCPin
	}
	return nil
}
