package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	display "github.com/BeatGlow/display-fsw"
)

// Version is reported by the no-op command.
const Version = "1.0.0"

// TableName is the name the device table is registered under.
const TableName = "DISPLAY.displayTable"

// MsgID identifies the kind of message on the command pipe.
type MsgID uint16

// Message IDs.
const (
	CommandMID MsgID = 0x1882
	SendHkMID  MsgID = 0x1883
)

// Command codes.
const (
	NoopCC          uint8 = 0
	ResetCountersCC uint8 = 1
	ProcessCC       uint8 = 2
)

// Message is one packet on the command pipe.
type Message struct {
	ID      MsgID
	Code    uint8
	Payload []byte
}

// Config configures an App.
type Config struct {
	// TablePath is the table image loaded at startup.
	TablePath string

	// Session configures the device session.
	Session display.SessionConfig

	// ExerciseTimeout bounds a process command, zero means no bound.
	ExerciseTimeout time.Duration

	// Telemetry receives CBOR housekeeping packets, defaults to io.Discard.
	Telemetry io.Writer

	Logger *slog.Logger
}

// App dispatches commands to one display session and reports housekeeping.
//
// All methods except Run must be called from the goroutine running Run, or before it starts.
type App struct {
	config  Config
	logger  *slog.Logger
	tables  *TableManager
	session *display.Session

	// Counters wrap like the uint8 telemetry fields.
	cmdCounter uint8
	errCounter uint8
}

// New returns an App with the device table registered.
func New(config *Config) *App {
	a := &App{config: *config}
	if a.config.Logger == nil {
		a.config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if a.config.Telemetry == nil {
		a.config.Telemetry = io.Discard
	}
	a.logger = a.config.Logger.With("app", "display")
	if a.config.Session.Logger == nil {
		a.config.Session.Logger = a.logger
	}
	a.tables = NewTableManager(a.logger)
	a.tables.Register(TableName, display.Validate)
	return a
}

// Tables returns the table manager.
func (a *App) Tables() *TableManager { return a.tables }

// Session returns the current device session, nil before Init.
func (a *App) Session() *display.Session { return a.session }

// Init loads the device table and initializes the session. A device failure still leaves a
// running App, the session reports Failed in housekeeping.
func (a *App) Init() error {
	a.cmdCounter, a.errCounter = 0, 0

	if a.config.TablePath != "" {
		if err := a.tables.Load(a.config.TablePath); err != nil {
			event(a.logger, EventStartupError, "failed to load table", "path", a.config.TablePath, "error", err)
			return err
		}
	}
	t, err := a.tables.Active()
	if err != nil {
		event(a.logger, EventStartupError, "no device table", "error", err)
		return err
	}

	a.session = display.NewSession(&a.config.Session)
	if err = a.session.Initialize(&t); err != nil {
		event(a.logger, EventStartupError, "display failed to initialize", "device", t.DevicePath, "error", err)
	} else {
		event(a.logger, EventStartupInfo, "display app initialized", "version", Version, "device", t.String())
	}
	return nil
}

// Run pends on the pipe until ctx ends or the pipe is closed, then closes the session.
func (a *App) Run(ctx context.Context, pipe <-chan Message) error {
	defer a.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-pipe:
			if !ok {
				event(a.logger, EventPipeError, "command pipe closed")
				return nil
			}
			a.Dispatch(ctx, msg)
		}
	}
}

// Close releases the device.
func (a *App) Close() error {
	if a.session == nil {
		return nil
	}
	return a.session.Close()
}

// Dispatch handles one message.
func (a *App) Dispatch(ctx context.Context, msg Message) {
	switch msg.ID {
	case CommandMID:
		a.command(ctx, msg)
	case SendHkMID:
		if err := a.reportHousekeeping(); err != nil {
			a.logger.Error("housekeeping", "error", err)
		}
	default:
		event(a.logger, EventInvalidMsgID, "invalid command packet", "mid", fmt.Sprintf("%#04x", uint16(msg.ID)))
	}
}

func (a *App) command(ctx context.Context, msg Message) {
	switch msg.Code {
	case NoopCC, ResetCountersCC, ProcessCC:
	default:
		a.errCounter++
		event(a.logger, EventCommandError, "invalid ground command code", "cc", msg.Code)
		return
	}

	// None of the commands carry a payload.
	if len(msg.Payload) != 0 {
		a.errCounter++
		event(a.logger, EventLengthError, "invalid command length",
			"mid", fmt.Sprintf("%#04x", uint16(msg.ID)), "cc", msg.Code, "len", len(msg.Payload), "expected", 0)
		return
	}

	switch msg.Code {
	case NoopCC:
		a.cmdCounter++
		event(a.logger, EventNoopInfo, "NOOP command", "version", Version)
	case ResetCountersCC:
		a.cmdCounter, a.errCounter = 0, 0
		event(a.logger, EventResetInfo, "RESET command")
	case ProcessCC:
		if err := a.process(ctx); err != nil {
			a.errCounter++
			event(a.logger, EventCommandError, "process command failed", "error", err)
			return
		}
		a.cmdCounter++
	}
}

func (a *App) process(ctx context.Context) error {
	if a.session == nil {
		return display.ErrNotReady
	}
	t, err := a.tables.Active()
	if err != nil {
		return err
	}
	a.logger.Info("process", "device", t.DevicePath, "crc", fmt.Sprintf("%#08x", a.tables.CRC()))

	if a.config.ExerciseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.ExerciseTimeout)
		defer cancel()
	}
	return a.session.ExerciseOnce(ctx)
}

// Housekeeping assembles the current housekeeping packet.
func (a *App) Housekeeping() HkTlm {
	hk := HkTlm{
		CmdCounter: a.cmdCounter,
		ErrCounter: a.errCounter,
		TableCRC:   a.tables.CRC(),
	}
	if a.session != nil {
		hk.SessionState = uint8(a.session.State())
		hk.LastErrorKind = uint8(display.KindOf(a.session.LastError()))
		hk.SessionID = a.session.ID().String()
	}
	return hk
}

func (a *App) reportHousekeeping() error {
	hk := a.Housekeeping()
	data, err := EncodeHk(&hk)
	if err != nil {
		return err
	}
	if _, err = a.config.Telemetry.Write(data); err != nil {
		return fmt.Errorf("host: send housekeeping: %w", err)
	}
	return nil
}
