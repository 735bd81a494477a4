package display

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BeatGlow/display-fsw/framebuffer"
)

var errTransfer = errors.New("transfer failed")

type write struct {
	b         byte
	isCommand bool
}

// fakeBus records every byte written. If failAt is set, writing the opcode of command index
// *failAt fails.
type fakeBus struct {
	writes   []write
	commands int
	failAt   *int
	closed   int
	resets   int
	status   []byte
	reads    int
	readErr  error
}

func (b *fakeBus) String() string { return "fake bus" }

func (b *fakeBus) Close() error {
	b.closed++
	return nil
}

func (b *fakeBus) Write(v byte, isCommand bool) error {
	if isCommand {
		if b.failAt != nil && b.commands == *b.failAt {
			return errTransfer
		}
		b.commands++
	}
	b.writes = append(b.writes, write{v, isCommand})
	return nil
}

func (b *fakeBus) Reset() error {
	b.resets++
	return nil
}

func (b *fakeBus) ReadStatus(p []byte) error {
	b.reads++
	if b.readErr != nil {
		return b.readErr
	}
	copy(p, b.status)
	return nil
}

// fakeClock is a Sequencer clock. Each sleep advances time by step, or by the full duration
// if step is zero.
type fakeClock struct {
	now    time.Time
	step   time.Duration
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	if c.step > 0 && c.step < d {
		d = c.step
	}
	c.now = c.now.Add(d)
}

func (c *fakeClock) sequencer() *Sequencer {
	return &Sequencer{Sleep: c.Sleep, Now: c.Now}
}

type fakeFramebuffer struct {
	geometry    framebuffer.Geometry
	geometryErr error
	mapErr      error
	mapped      []int
	region      []byte
	closed      int
}

func (f *fakeFramebuffer) String() string { return "fake framebuffer" }

func (f *fakeFramebuffer) Close() error {
	f.closed++
	return nil
}

func (f *fakeFramebuffer) Geometry() (framebuffer.Geometry, error) {
	return f.geometry, f.geometryErr
}

func (f *fakeFramebuffer) Map(length int) ([]byte, error) {
	f.mapped = append(f.mapped, length)
	if f.mapErr != nil {
		return nil, f.mapErr
	}
	f.region = make([]byte, length)
	return f.region, nil
}

type fakeOpener struct {
	fb      *fakeFramebuffer
	bus     *fakeBus
	openErr error
	opens   int
}

func (o *fakeOpener) OpenFramebuffer(path string) (Framebuffer, error) {
	o.opens++
	if o.openErr != nil {
		return nil, o.openErr
	}
	return o.fb, nil
}

func (o *fakeOpener) OpenBus(t *Table) (Bus, error) {
	o.opens++
	if o.openErr != nil {
		return nil, o.openErr
	}
	return o.bus, nil
}

// deviceNode creates a file standing in for a device node. The directory is kept short so the
// path fits in DevicePathSize.
func deviceNode(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "fb")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	path := filepath.Join(dir, "fb0")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}

func intPtr(v int) *int { return &v }
