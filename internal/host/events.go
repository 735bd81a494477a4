// Package host runs a display session the way a flight software application does: a table
// manager holds the validated device table, a command pipe feeds ground commands and
// housekeeping requests, and events and telemetry report what happened.
package host

import (
	"context"
	"log/slog"
)

// EventID identifies an application event.
type EventID uint16

// Event IDs.
const (
	EventReserved EventID = iota
	EventStartupInfo
	EventStartupError
	EventCommandError
	EventNoopInfo
	EventResetInfo
	EventInvalidMsgID
	EventLengthError
	EventPipeError
	EventTableError
)

func (id EventID) String() string {
	switch id {
	case EventStartupInfo:
		return "STARTUP_INF"
	case EventStartupError:
		return "STARTUP_ERR"
	case EventCommandError:
		return "COMMAND_ERR"
	case EventNoopInfo:
		return "COMMANDNOP_INF"
	case EventResetInfo:
		return "COMMANDRST_INF"
	case EventInvalidMsgID:
		return "INVALID_MSGID_ERR"
	case EventLengthError:
		return "LEN_ERR"
	case EventPipeError:
		return "PIPE_ERR"
	case EventTableError:
		return "TBL_ERR"
	default:
		return "RESERVED"
	}
}

func (id EventID) level() slog.Level {
	switch id {
	case EventStartupError, EventCommandError, EventInvalidMsgID, EventLengthError, EventPipeError, EventTableError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// event emits one event record.
func event(logger *slog.Logger, id EventID, msg string, args ...any) {
	args = append([]any{slog.Int("eid", int(id)), slog.String("event", id.String())}, args...)
	logger.Log(context.Background(), id.level(), msg, args...)
}
