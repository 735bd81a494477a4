package host

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	display "github.com/BeatGlow/display-fsw"
	"github.com/BeatGlow/display-fsw/framebuffer"
)

type testFramebuffer struct {
	mapErr error
	closed int
}

func (f *testFramebuffer) String() string { return "test framebuffer" }

func (f *testFramebuffer) Close() error {
	f.closed++
	return nil
}

func (f *testFramebuffer) Geometry() (framebuffer.Geometry, error) {
	return framebuffer.Geometry{Width: 128, Height: 160, BitsPerPixel: 16}, nil
}

func (f *testFramebuffer) Map(length int) ([]byte, error) {
	if f.mapErr != nil {
		return nil, f.mapErr
	}
	return make([]byte, length), nil
}

type testOpener struct {
	fb *testFramebuffer
}

func (o testOpener) OpenFramebuffer(string) (display.Framebuffer, error) { return o.fb, nil }

func (o testOpener) OpenBus(*display.Table) (display.Bus, error) {
	return nil, errors.New("no bus")
}

func newTestApp(t *testing.T, fb *testFramebuffer) (*App, *bytes.Buffer) {
	t.Helper()
	path, _ := writeTable(t, framebufferTable(t))
	tlm := new(bytes.Buffer)
	a := New(&Config{
		TablePath: path,
		Session: display.SessionConfig{
			Opener:   testOpener{fb: fb},
			Patterns: &display.PatternWriter{Iterations: 2},
		},
		Telemetry: tlm,
	})
	require.NoError(t, a.Init())
	return a, tlm
}

func command(code uint8, payload ...byte) Message {
	return Message{ID: CommandMID, Code: code, Payload: payload}
}

func TestAppCommands(t *testing.T) {
	a, _ := newTestApp(t, new(testFramebuffer))
	ctx := context.Background()
	assert.Equal(t, display.Ready, a.Session().State())

	a.Dispatch(ctx, command(NoopCC))
	a.Dispatch(ctx, command(ProcessCC))
	hk := a.Housekeeping()
	assert.Equal(t, uint8(2), hk.CmdCounter)
	assert.Equal(t, uint8(0), hk.ErrCounter)

	a.Dispatch(ctx, command(9))
	a.Dispatch(ctx, command(NoopCC, 0x01))
	a.Dispatch(ctx, Message{ID: 0x1999})
	hk = a.Housekeeping()
	assert.Equal(t, uint8(2), hk.CmdCounter)
	assert.Equal(t, uint8(2), hk.ErrCounter, "invalid message IDs are not counted")

	a.Dispatch(ctx, command(ResetCountersCC))
	hk = a.Housekeeping()
	assert.Zero(t, hk.CmdCounter)
	assert.Zero(t, hk.ErrCounter)
}

func TestAppCountersWrap(t *testing.T) {
	a, _ := newTestApp(t, new(testFramebuffer))
	for i := 0; i < 257; i++ {
		a.Dispatch(context.Background(), command(NoopCC))
	}
	assert.Equal(t, uint8(1), a.Housekeeping().CmdCounter)
}

func TestAppHousekeeping(t *testing.T) {
	a, tlm := newTestApp(t, new(testFramebuffer))
	a.Dispatch(context.Background(), command(NoopCC))
	a.Dispatch(context.Background(), Message{ID: SendHkMID})

	hk, err := DecodeHk(tlm.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint8(1), hk.CmdCounter)
	assert.Equal(t, uint8(display.Ready), hk.SessionState)
	assert.Equal(t, a.Tables().CRC(), hk.TableCRC)
	assert.Equal(t, a.Session().ID().String(), hk.SessionID)
	assert.NotZero(t, hk.TableCRC)
}

func TestAppDeviceFailure(t *testing.T) {
	a, _ := newTestApp(t, &testFramebuffer{mapErr: errors.New("mmap failed")})
	assert.Equal(t, display.Failed, a.Session().State())

	a.Dispatch(context.Background(), command(ProcessCC))
	hk := a.Housekeeping()
	assert.Equal(t, uint8(1), hk.ErrCounter)
	assert.Equal(t, uint8(display.Failed), hk.SessionState)
	assert.Equal(t, uint8(display.OpenFailure), hk.LastErrorKind)
}

func TestAppInitWithoutTable(t *testing.T) {
	a := New(&Config{})
	assert.ErrorIs(t, a.Init(), ErrNoTable)
	a.Dispatch(context.Background(), command(ProcessCC))
	assert.Equal(t, uint8(1), a.Housekeeping().ErrCounter)
}

func TestAppRun(t *testing.T) {
	fb := new(testFramebuffer)
	a, tlm := newTestApp(t, fb)

	pipe := make(chan Message, 4)
	pipe <- command(NoopCC)
	pipe <- Message{ID: SendHkMID}
	close(pipe)

	require.NoError(t, a.Run(context.Background(), pipe))
	assert.Equal(t, 1, fb.closed, "session closed on exit")
	assert.Equal(t, display.Unopened, a.Session().State())
	assert.NotZero(t, tlm.Len())
}

func TestAppRunCancelled(t *testing.T) {
	fb := new(testFramebuffer)
	a, _ := newTestApp(t, fb)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := a.Run(ctx, make(chan Message))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, fb.closed)
}
