package host

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
	}
	if encMode, err = encOpts.EncMode(); err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	if decMode, err = decOpts.DecMode(); err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// HkTlm is the housekeeping telemetry packet.
type HkTlm struct {
	CmdCounter    uint8  `cbor:"1,keyasint"`
	ErrCounter    uint8  `cbor:"2,keyasint"`
	SessionState  uint8  `cbor:"3,keyasint"`
	LastErrorKind uint8  `cbor:"4,keyasint"`
	TableCRC      uint32 `cbor:"5,keyasint"`
	SessionID     string `cbor:"6,keyasint,omitempty"`
}

// EncodeHk encodes a housekeeping packet.
func EncodeHk(hk *HkTlm) ([]byte, error) {
	return encMode.Marshal(hk)
}

// DecodeHk decodes a housekeeping packet.
func DecodeHk(data []byte) (*HkTlm, error) {
	hk := new(HkTlm)
	if err := decMode.Unmarshal(data, hk); err != nil {
		return nil, fmt.Errorf("host: decode housekeeping: %w", err)
	}
	return hk, nil
}

// NewHkDecoder reads a stream of housekeeping packets.
func NewHkDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}
