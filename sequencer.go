package display

import (
	"log"
	"time"
)

// Sequencer writes command lists to a bus.
//
// Commands run strictly in list order: the opcode in command mode, then each argument byte in
// data mode, then the command delay, if any. A failed transfer aborts the run and leaves the
// controller in an unknown state; the only recovery is to run the whole list again on a
// freshly opened bus.
type Sequencer struct {
	// Sleep blocks for the given duration, defaults to time.Sleep.
	Sleep func(time.Duration)

	// Now reports the current time, defaults to time.Now. It is only consulted together with
	// Sleep: a Sleep without Now is trusted to block for the full delay, and a Now without
	// Sleep is ignored.
	Now func() time.Time
}

// Run writes the list to the bus. A transfer error is returned as an IOFailure with the
// index of the failing command in Step.
func (s *Sequencer) Run(bus Bus, list CommandList) error {
	for i, cmd := range list {
		if err := bus.Write(cmd.Opcode, true); err != nil {
			return s.fail(bus, i, err)
		}
		for _, arg := range cmd.Args {
			if err := bus.Write(arg, false); err != nil {
				return s.fail(bus, i, err)
			}
		}
		if cmd.Delay > 0 {
			s.wait(cmd.Delay)
		}
	}
	return nil
}

func (s *Sequencer) fail(bus Bus, step int, err error) error {
	if debug {
		log.Printf("sequencer: %s failed at step %d: %v", bus, step, err)
	}
	return &Error{Kind: IOFailure, Op: "write", Path: bus.String(), Step: step, Err: err}
}

// wait blocks for at least d. With a full clock it sleeps again if the sleeper returns early.
func (s *Sequencer) wait(d time.Duration) {
	sleep, now := s.Sleep, s.Now
	switch {
	case sleep == nil:
		sleep, now = time.Sleep, time.Now
	case now == nil:
		sleep(d)
		return
	}

	deadline := now().Add(d)
	for d > 0 {
		sleep(d)
		d = deadline.Sub(now())
	}
}
