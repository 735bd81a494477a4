package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxArgs is the largest number of argument bytes a single command may carry.
const MaxArgs = 16

// Compact command list encoding, as used in controller vendor reference code.
const (
	cmdDelayFlag = 0x80 // argument count byte flag, a delay byte follows the arguments
	cmdLongDelay = 255  // delay byte value meaning 500ms
)

// Command is one entry of a controller bring-up sequence.
type Command struct {
	Opcode byte
	Args   []byte

	// Delay is the minimum time to wait after the command, zero means no wait.
	Delay time.Duration
}

func (c Command) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%#02x", c.Opcode)
	for _, a := range c.Args {
		fmt.Fprintf(&sb, " %02x", a)
	}
	if c.Delay > 0 {
		fmt.Fprintf(&sb, " +%s", c.Delay)
	}
	return sb.String()
}

// CommandList is an ordered bring-up sequence, terminated by its length.
type CommandList []Command

// Concat returns the lists joined in order.
func Concat(lists ...CommandList) CommandList {
	var n int
	for _, l := range lists {
		n += len(l)
	}
	out := make(CommandList, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// DecodeCommandList decodes the compact byte form:
//
//	count, then per command: opcode, argc (| 0x80 if a delay follows), args..., [delay ms]
//
// A delay byte of 255 means 500ms. Trailing bytes are an error.
func DecodeCommandList(data []byte) (CommandList, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrCommandEncoding)
	}
	var (
		count = int(data[0])
		list  = make(CommandList, 0, count)
		p     = data[1:]
	)
	for i := 0; i < count; i++ {
		if len(p) < 2 {
			return nil, fmt.Errorf("%w: command %d truncated", ErrCommandEncoding, i)
		}
		cmd := Command{Opcode: p[0]}
		argc := int(p[1] &^ cmdDelayFlag)
		hasDelay := p[1]&cmdDelayFlag != 0
		p = p[2:]

		if argc > MaxArgs {
			return nil, fmt.Errorf("%w: command %d has %d arguments", ErrCommandEncoding, i, argc)
		}
		if len(p) < argc {
			return nil, fmt.Errorf("%w: command %d arguments truncated", ErrCommandEncoding, i)
		}
		if argc > 0 {
			cmd.Args = append([]byte(nil), p[:argc]...)
		}
		p = p[argc:]

		if hasDelay {
			if len(p) < 1 {
				return nil, fmt.Errorf("%w: command %d delay truncated", ErrCommandEncoding, i)
			}
			ms := time.Duration(p[0])
			if p[0] == cmdLongDelay {
				ms = 500
			}
			cmd.Delay = ms * time.Millisecond
			p = p[1:]
		}
		list = append(list, cmd)
	}
	if len(p) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCommandEncoding, len(p))
	}
	return list, nil
}

// EncodeCommandList encodes a list in the compact byte form. Delays must be whole
// milliseconds below 255ms, or exactly 500ms.
func EncodeCommandList(list CommandList) ([]byte, error) {
	if len(list) > 255 {
		return nil, fmt.Errorf("%w: %d commands", ErrCommandEncoding, len(list))
	}
	out := []byte{byte(len(list))}
	for i, cmd := range list {
		if len(cmd.Args) > MaxArgs {
			return nil, fmt.Errorf("%w: command %d has %d arguments", ErrCommandEncoding, i, len(cmd.Args))
		}
		argc := byte(len(cmd.Args))
		if cmd.Delay > 0 {
			argc |= cmdDelayFlag
		}
		out = append(out, cmd.Opcode, argc)
		out = append(out, cmd.Args...)
		if cmd.Delay > 0 {
			switch {
			case cmd.Delay == 500*time.Millisecond:
				out = append(out, cmdLongDelay)
			case cmd.Delay%time.Millisecond == 0 && cmd.Delay < cmdLongDelay*time.Millisecond:
				out = append(out, byte(cmd.Delay/time.Millisecond))
			default:
				return nil, fmt.Errorf("%w: command %d delay %s not encodable", ErrCommandEncoding, i, cmd.Delay)
			}
		}
	}
	return out, nil
}

// mustDecode decodes a built-in table and checks it against the controller datasheet.
func mustDecode(ctrl *Controller, data []byte) CommandList {
	list, err := DecodeCommandList(data)
	if err == nil {
		err = ctrl.Check(list)
	}
	if err != nil {
		panic(fmt.Sprintf("display: built-in %s command list: %v", ctrl.Name, err))
	}
	return list
}

// commandSource is the YAML form of a command, eg:
//
//	{op: 0xB1, args: [0x01, 0x2C, 0x2D], delay: 10ms}
type commandSource struct {
	Op    byte          `yaml:"op"`
	Args  []int         `yaml:"args,omitempty"`
	Delay time.Duration `yaml:"delay,omitempty"`
}

// LoadCommandList reads a YAML command script.
func LoadCommandList(r io.Reader) (CommandList, error) {
	var src []commandSource
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&src); err != nil {
		return nil, fmt.Errorf("display: command script: %w", err)
	}
	list := make(CommandList, len(src))
	for i, s := range src {
		if len(s.Args) > MaxArgs {
			return nil, fmt.Errorf("%w: command %d has %d arguments", ErrCommandEncoding, i, len(s.Args))
		}
		if s.Delay < 0 {
			return nil, fmt.Errorf("%w: command %d has negative delay", ErrCommandEncoding, i)
		}
		cmd := Command{Opcode: s.Op, Delay: s.Delay}
		for _, a := range s.Args {
			if a < 0 || a > 0xff {
				return nil, fmt.Errorf("%w: command %d argument %d out of range", ErrCommandEncoding, i, a)
			}
			cmd.Args = append(cmd.Args, byte(a))
		}
		list[i] = cmd
	}
	return list, nil
}

// MarshalYAML writes a list in the script form read by LoadCommandList.
func (l CommandList) MarshalYAML() (interface{}, error) {
	src := make([]commandSource, len(l))
	for i, c := range l {
		src[i] = commandSource{Op: c.Opcode, Delay: c.Delay}
		for _, a := range c.Args {
			src[i].Args = append(src[i].Args, int(a))
		}
	}
	return src, nil
}
