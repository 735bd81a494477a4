package display

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// TransportKind selects the device transport.
type TransportKind uint16

// Transports.
const (
	TransportFramebuffer TransportKind = iota
	TransportSPI
)

func (k TransportKind) String() string {
	switch k {
	case TransportFramebuffer:
		return "framebuffer"
	case TransportSPI:
		return "spi"
	default:
		return fmt.Sprintf("transport(%d)", uint16(k))
	}
}

// ParseTransportKind parses a transport name.
func ParseTransportKind(s string) (TransportKind, error) {
	switch strings.ToLower(s) {
	case "framebuffer", "fb", "fbdev":
		return TransportFramebuffer, nil
	case "spi", "spidev":
		return TransportSPI, nil
	default:
		return 0, fmt.Errorf("display: unknown transport %q", s)
	}
}

// NoLine marks an unused GPIO line in the table.
const NoLine = 0xFFFF

// DevicePathSize is the width of the device path field in the table image, including the
// terminating NUL.
const DevicePathSize = 64

// TableSize is the size of the persisted table image in bytes.
const TableSize = 84

// Table describes one physical display device. A Table is handed to a Session by value and
// never changes while the session is open; a reload replaces it wholesale.
type Table struct {
	// DevicePath is the framebuffer or spidev device node.
	DevicePath string

	Transport TransportKind

	// Variant is the controller tab variant, only used by the SPI transport.
	Variant Variant

	Rotation Rotation

	// SPIMode is the spidev clock mode (0-3).
	SPIMode uint16

	// SpeedHz is the SPI clock, zero selects DefaultSpeedHz.
	SpeedHz uint32

	// DCLine is the GPIO number of the data/command select line.
	DCLine uint16

	// ResetLine is the GPIO number of the reset line, or NoLine.
	ResetLine uint16

	// ChipSelect is the GPIO number of an additional chip enable line, or NoLine.
	ChipSelect uint16
}

// DefaultTable is a Pimoroni/Adafruit style 1.8" ST7735 on the first SPI bus of a Raspberry Pi.
var DefaultTable = Table{
	DevicePath: "/dev/spidev0.0",
	Transport:  TransportSPI,
	Variant:    GreenTab,
	Rotation:   NoRotation,
	SPIMode:    0,
	SpeedHz:    DefaultSpeedHz,
	DCLine:     24,
	ResetLine:  25,
	ChipSelect: NoLine,
}

// tableImage is the on-disk layout, little endian, no padding.
type tableImage struct {
	DevicePath [DevicePathSize]byte
	Transport  uint16
	Variant    uint16
	Rotation   uint16
	SPIMode    uint16
	SpeedHz    uint32
	DCLine     uint16
	ResetLine  uint16
	ChipSelect uint16
	Reserved   uint16
}

// MarshalBinary encodes the table into its fixed-size persisted image.
func (t *Table) MarshalBinary() ([]byte, error) {
	if len(t.DevicePath) >= DevicePathSize {
		return nil, newError(ConfigInvalid, "encode", t.DevicePath, fmt.Errorf("device path longer than %d bytes", DevicePathSize-1))
	}
	if strings.IndexByte(t.DevicePath, 0) >= 0 {
		return nil, newError(ConfigInvalid, "encode", t.DevicePath, fmt.Errorf("device path contains NUL"))
	}

	img := tableImage{
		Transport:  uint16(t.Transport),
		Variant:    uint16(t.Variant),
		Rotation:   uint16(t.Rotation),
		SPIMode:    t.SPIMode,
		SpeedHz:    t.SpeedHz,
		DCLine:     t.DCLine,
		ResetLine:  t.ResetLine,
		ChipSelect: t.ChipSelect,
	}
	copy(img.DevicePath[:], t.DevicePath)

	var buf bytes.Buffer
	buf.Grow(TableSize)
	if err := binary.Write(&buf, binary.LittleEndian, &img); err != nil {
		return nil, newError(ConfigInvalid, "encode", t.DevicePath, err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a persisted table image.
func (t *Table) UnmarshalBinary(data []byte) error {
	if len(data) != TableSize {
		return newError(ConfigInvalid, "decode", "", fmt.Errorf("table image is %d bytes, expected %d", len(data), TableSize))
	}

	var img tableImage
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &img); err != nil {
		return newError(ConfigInvalid, "decode", "", err)
	}

	n := bytes.IndexByte(img.DevicePath[:], 0)
	if n < 0 {
		return newError(ConfigInvalid, "decode", "", fmt.Errorf("device path is not NUL terminated"))
	}
	for _, b := range img.DevicePath[n:] {
		if b != 0 {
			return newError(ConfigInvalid, "decode", "", fmt.Errorf("device path padding is not zero"))
		}
	}
	if !utf8.Valid(img.DevicePath[:n]) {
		return newError(ConfigInvalid, "decode", "", fmt.Errorf("device path is not valid UTF-8"))
	}
	if img.Reserved != 0 {
		return newError(ConfigInvalid, "decode", "", fmt.Errorf("reserved field is %#04x", img.Reserved))
	}
	if img.Rotation > uint16(Rotate270) {
		return newError(ConfigInvalid, "decode", "", fmt.Errorf("invalid rotation %d", img.Rotation))
	}

	*t = Table{
		DevicePath: string(img.DevicePath[:n]),
		Transport:  TransportKind(img.Transport),
		Variant:    Variant(img.Variant),
		Rotation:   Rotation(img.Rotation),
		SPIMode:    img.SPIMode,
		SpeedHz:    img.SpeedHz,
		DCLine:     img.DCLine,
		ResetLine:  img.ResetLine,
		ChipSelect: img.ChipSelect,
	}
	return nil
}

// DecodeTable decodes a persisted table image.
func DecodeTable(data []byte) (*Table, error) {
	t := new(Table)
	if err := t.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) String() string {
	if t.Transport == TransportSPI {
		return fmt.Sprintf("%s %s %s rotation %s", t.Transport, t.DevicePath, t.Variant, t.Rotation)
	}
	return fmt.Sprintf("%s %s", t.Transport, t.DevicePath)
}

// tableSource is the human editable YAML form of a table.
type tableSource struct {
	DevicePath string `yaml:"device_path"`
	Transport  string `yaml:"transport"`
	Variant    string `yaml:"variant,omitempty"`
	Rotation   int    `yaml:"rotation"`
	SPIMode    uint16 `yaml:"spi_mode"`
	SpeedHz    uint32 `yaml:"speed_hz,omitempty"`
	DCLine     *int   `yaml:"dc_line,omitempty"`
	ResetLine  *int   `yaml:"reset_line,omitempty"`
	ChipSelect *int   `yaml:"chip_select,omitempty"`
}

func lineOf(v *int) (uint16, error) {
	if v == nil || *v < 0 {
		return NoLine, nil
	}
	if *v >= NoLine {
		return 0, fmt.Errorf("display: GPIO line %d out of range", *v)
	}
	return uint16(*v), nil
}

func lineRef(v uint16) *int {
	if v == NoLine {
		return nil
	}
	n := int(v)
	return &n
}

// UnmarshalYAML decodes the table source form, with rotation in degrees and names for the
// transport and variant.
func (t *Table) UnmarshalYAML(node *yaml.Node) (err error) {
	var src tableSource
	if err = node.Decode(&src); err != nil {
		return
	}

	out := Table{
		DevicePath: src.DevicePath,
		SPIMode:    src.SPIMode,
		SpeedHz:    src.SpeedHz,
	}
	if out.Transport, err = ParseTransportKind(src.Transport); err != nil {
		return
	}
	if src.Variant != "" {
		if out.Variant, err = ParseVariant(src.Variant); err != nil {
			return
		}
	}
	switch src.Rotation {
	case 0, 90, 180, 270:
		out.Rotation = Rotation(src.Rotation / 90)
	default:
		return fmt.Errorf("display: invalid rotation %d", src.Rotation)
	}
	if out.DCLine, err = lineOf(src.DCLine); err != nil {
		return
	}
	if out.ResetLine, err = lineOf(src.ResetLine); err != nil {
		return
	}
	if out.ChipSelect, err = lineOf(src.ChipSelect); err != nil {
		return
	}

	*t = out
	return nil
}

// MarshalYAML encodes the table in its source form.
func (t Table) MarshalYAML() (interface{}, error) {
	src := tableSource{
		DevicePath: t.DevicePath,
		Transport:  t.Transport.String(),
		Rotation:   int(t.Rotation%4) * 90,
		SPIMode:    t.SPIMode,
		SpeedHz:    t.SpeedHz,
		DCLine:     lineRef(t.DCLine),
		ResetLine:  lineRef(t.ResetLine),
		ChipSelect: lineRef(t.ChipSelect),
	}
	if t.Transport == TransportSPI {
		src.Variant = t.Variant.String()
	}
	return src, nil
}
