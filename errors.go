package display

import (
	"errors"
	"fmt"
)

// Kind classifies a bring-up failure.
type Kind uint8

// Failure kinds.
const (
	// ConfigInvalid is a missing or malformed table.
	ConfigInvalid Kind = iota + 1

	// DeviceNotFound means the table device node does not exist.
	DeviceNotFound

	// OpenFailure means the transport could not be opened or mapped.
	OpenFailure

	// ReadFailure means a geometry or status query failed.
	ReadFailure

	// IOFailure means a transfer failed, Error.Step holds the failing command index.
	IOFailure
)

func (k Kind) String() string {
	switch k {
	case ConfigInvalid:
		return "config invalid"
	case DeviceNotFound:
		return "device not found"
	case OpenFailure:
		return "open failure"
	case ReadFailure:
		return "read failure"
	case IOFailure:
		return "I/O failure"
	default:
		return "no error"
	}
}

// Error implements the error interface, so a bare Kind can be used as a target for errors.Is.
func (k Kind) Error() string {
	return "display: " + k.String()
}

// Session errors.
var (
	ErrNotReady        = errors.New("display: session is not ready")
	ErrAlreadyOpen     = errors.New("display: session was already initialized")
	ErrUnknownOpcode   = errors.New("display: opcode not in controller datasheet table")
	ErrArgCount        = errors.New("display: argument count does not match datasheet")
	ErrUnknownVariant  = errors.New("display: unknown controller variant")
	ErrWindowBounds    = errors.New("display: address window out of controller bounds")
	ErrCommandEncoding = errors.New("display: malformed command list encoding")
)

// Error is a structured bring-up failure.
type Error struct {
	Kind Kind

	// Op is the operation that failed, such as "open" or "map".
	Op string

	// Path is the device node, if known.
	Path string

	// Step is the failing command list index for IOFailure, -1 otherwise.
	Step int

	Err error
}

func (e *Error) Error() string {
	s := "display: " + e.Op
	if e.Path != "" {
		s += " " + e.Path
	}
	if e.Step >= 0 {
		s += fmt.Sprintf(" step %d", e.Step)
	}
	s += ": " + e.Kind.String()
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a target Kind, so errors.Is(err, IOFailure) works on wrapped errors.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func newError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Step: -1, Err: err}
}

// KindOf returns the failure kind of err, or zero if err is nil or unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return 0
}
