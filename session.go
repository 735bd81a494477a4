package display

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/BeatGlow/display-fsw/framebuffer"
)

// State is the lifecycle state of a Session.
type State uint8

// Session states.
const (
	Unopened State = iota
	Opening
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Opening:
		return "opening"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// SessionConfig holds the collaborators of a Session. The zero value opens real devices.
type SessionConfig struct {
	// Opener opens the transport, defaults to DeviceOpener.
	Opener Opener

	// Sequencer runs command lists on a bus.
	Sequencer *Sequencer

	// Patterns exercises a framebuffer, defaults to DefaultPatternWriter.
	Patterns *PatternWriter

	// Pattern is the pattern written by ExerciseOnce.
	Pattern Pattern

	// Logger receives session events, defaults to a discarding logger.
	Logger *slog.Logger
}

// Session owns one open display device.
//
// A Session is not safe for concurrent use. Once Failed it stays Failed; retrying means a new
// Session and a fresh Initialize, which reruns the whole bring-up from the first command.
type Session struct {
	id        uuid.UUID
	opener    Opener
	sequencer *Sequencer
	patterns  *PatternWriter
	pattern   Pattern
	logger    *slog.Logger

	state   State
	lastErr error
	table   Table

	// Framebuffer transport.
	fb       Framebuffer
	geometry framebuffer.Geometry
	region   []byte

	// Bus transport.
	bus    Bus
	window AddressWindow
}

// NewSession returns an Unopened session.
func NewSession(config *SessionConfig) *Session {
	if config == nil {
		config = new(SessionConfig)
	}
	s := &Session{
		id:        uuid.New(),
		opener:    config.Opener,
		sequencer: config.Sequencer,
		patterns:  config.Patterns,
		pattern:   config.Pattern,
		logger:    config.Logger,
	}
	if s.opener == nil {
		s.opener = DeviceOpener{}
	}
	if s.sequencer == nil {
		s.sequencer = new(Sequencer)
	}
	if s.patterns == nil {
		s.patterns = DefaultPatternWriter()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.logger = s.logger.With("session", s.id.String())
	return s
}

// ID identifies the session in events and telemetry.
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// LastError returns the error that moved the session to Failed, if any.
func (s *Session) LastError() error { return s.lastErr }

// Table returns the table the session was initialized with.
func (s *Session) Table() Table { return s.table }

// Geometry returns the framebuffer geometry, valid when a framebuffer session is Ready.
func (s *Session) Geometry() framebuffer.Geometry { return s.geometry }

// Window returns the controller address window, valid when a bus session is Ready.
func (s *Session) Window() AddressWindow { return s.window }

// Initialize validates the table, opens the transport it selects and brings the device up.
//
// On failure all partially acquired resources are released, the session moves to Failed and
// the error is returned unchanged.
func (s *Session) Initialize(t *Table) error {
	if s.state != Unopened {
		return fmt.Errorf("%w (state %s)", ErrAlreadyOpen, s.state)
	}
	s.state = Opening

	if err := Validate(t); err != nil {
		return s.fail(err)
	}
	s.table = *t

	var err error
	switch t.Transport {
	case TransportFramebuffer:
		err = s.openFramebuffer()
	case TransportSPI:
		err = s.openBus()
	}
	if err != nil {
		return s.fail(err)
	}

	s.state = Ready
	s.logger.Info("device ready", "table", s.table.String())
	return nil
}

func (s *Session) openFramebuffer() (err error) {
	path := s.table.DevicePath
	if s.fb, err = s.opener.OpenFramebuffer(path); err != nil {
		return classify(OpenFailure, "open", path, err)
	}
	if s.geometry, err = s.fb.Geometry(); err != nil {
		return classify(ReadFailure, "geometry", path, err)
	}
	size := s.geometry.FrameSize()
	if size <= 0 {
		return newError(ReadFailure, "geometry", path, fmt.Errorf("empty frame %s", s.geometry))
	}
	if s.region, err = s.fb.Map(size); err != nil {
		return classify(OpenFailure, "map", path, err)
	}
	s.logger.Debug("framebuffer mapped", "path", path, "geometry", s.geometry.String(), "bytes", len(s.region))
	return nil
}

func (s *Session) openBus() (err error) {
	path := s.table.DevicePath
	list, window, err := BringUp(s.table.Variant, s.table.Rotation)
	if err != nil {
		return classify(ConfigInvalid, "bring-up", path, err)
	}
	if s.bus, err = s.opener.OpenBus(&s.table); err != nil {
		return classify(OpenFailure, "open", path, err)
	}
	if r, ok := s.bus.(Resetter); ok {
		if err = r.Reset(); err != nil {
			return classify(IOFailure, "reset", path, err)
		}
	}
	if err = s.sequencer.Run(s.bus, list); err != nil {
		return err
	}
	s.window = window
	s.logger.Debug("controller configured", "path", path, "variant", s.table.Variant.String(), "commands", len(list), "window", window.String())
	return nil
}

// ExerciseOnce runs the self-test: a pattern over the mapped framebuffer, or the status
// command on a bus. It is rejected without any I/O unless the session is Ready.
//
// A pattern stopped by ctx returns the context error and leaves the session Ready.
func (s *Session) ExerciseOnce(ctx context.Context) error {
	if s.state != Ready {
		return fmt.Errorf("%w (state %s)", ErrNotReady, s.state)
	}

	if s.fb != nil {
		err := s.patterns.Write(ctx, s.region, s.pattern)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.logger.Info("pattern interrupted", "pattern", s.pattern.String(), "error", err)
				return err
			}
			return s.fail(err)
		}
		s.logger.Info("pattern written", "pattern", s.pattern.String(), "bytes", len(s.region))
		return nil
	}

	if err := s.sequencer.Run(s.bus, StatusList()); err != nil {
		return s.fail(err)
	}
	if r, ok := s.bus.(StatusReader); ok {
		var status [StatusLength]byte
		if err := r.ReadStatus(status[:]); err != nil {
			return s.fail(classify(ReadFailure, "status", s.table.DevicePath, err))
		}
		s.logger.Info("display status", "status", fmt.Sprintf("% x", status[:]))
	}
	return nil
}

// Close releases the transport. A Ready session returns to Unopened; closing an Unopened or
// Failed session is a no-op.
func (s *Session) Close() error {
	if s.state != Ready {
		return nil
	}
	err := s.release()
	s.state = Unopened
	s.logger.Info("device closed")
	return err
}

// release closes whatever transport is held. Closing a framebuffer also drops its mapping.
func (s *Session) release() (err error) {
	if s.fb != nil {
		err = s.fb.Close()
		s.fb, s.region = nil, nil
	}
	if s.bus != nil {
		if cerr := s.bus.Close(); err == nil {
			err = cerr
		}
		s.bus = nil
	}
	return
}

func (s *Session) fail(err error) error {
	_ = s.release()
	s.state = Failed
	s.lastErr = err
	s.logger.Error("device failed", "kind", KindOf(err).String(), "error", err)
	return err
}

// classify returns err unchanged if it already carries a Kind, else wraps it.
func classify(kind Kind, op, path string, err error) error {
	if KindOf(err) != 0 {
		return err
	}
	return newError(kind, op, path, err)
}
