package display

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/BeatGlow/display-fsw/pixel"
)

// Pattern selects the fill written by a PatternWriter.
type Pattern uint8

// Patterns.
const (
	// PatternBitWalk fills every byte with successive powers of two.
	PatternBitWalk Pattern = iota

	// PatternSolid fills the region with a cycle of solid RGB565 colors.
	PatternSolid
)

func (p Pattern) String() string {
	switch p {
	case PatternBitWalk:
		return "bitwalk"
	case PatternSolid:
		return "solid"
	default:
		return fmt.Sprintf("pattern(%d)", uint8(p))
	}
}

// Pattern defaults.
const (
	DefaultPatternPause      = time.Second
	DefaultPatternIterations = 8
)

var solidCycle = []pixel.CRGB16{
	pixel.Black,
	pixel.Red,
	pixel.Green,
	pixel.Blue,
	pixel.White,
}

// PatternWriter fills a mapped pixel region with a diagnostic pattern.
//
// Each iteration fills the whole region, then waits Pause, the last one included. Cancellation
// is checked between fills only, a single fill always runs to completion.
type PatternWriter struct {
	// Pause after each fill, zero means no pause.
	Pause time.Duration

	// Iterations is the number of fills, defaults to DefaultPatternIterations.
	Iterations int
}

// DefaultPatternWriter returns the self-test writer: eight fills one second apart.
func DefaultPatternWriter() *PatternWriter {
	return &PatternWriter{
		Pause:      DefaultPatternPause,
		Iterations: DefaultPatternIterations,
	}
}

// Write runs the pattern over region. It returns ctx.Err() if the context ends during a pause.
func (w *PatternWriter) Write(ctx context.Context, region []byte, id Pattern) error {
	if len(region) == 0 {
		return &Error{Kind: IOFailure, Op: "pattern " + id.String(), Step: 0, Err: fmt.Errorf("empty region")}
	}
	if id != PatternBitWalk && id != PatternSolid {
		return &Error{Kind: IOFailure, Op: "pattern " + id.String(), Step: 0, Err: fmt.Errorf("unknown pattern")}
	}

	iterations := w.Iterations
	if iterations <= 0 {
		iterations = DefaultPatternIterations
	}

	limit := rate.Inf
	if w.Pause > 0 {
		limit = rate.Every(w.Pause)
	}
	limiter := rate.NewLimiter(limit, 1)

	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		// The first token is available immediately, later ones are Pause apart.
		if err := pause(ctx, limiter); err != nil {
			return err
		}

		switch id {
		case PatternBitWalk:
			b := byte(1) << (i % 8)
			for j := range region {
				region[j] = b
			}
		case PatternSolid:
			pixel.Fill(region, color.Color(solidCycle[i%len(solidCycle)]))
		}
		if debug {
			log.Printf("pattern: %s iteration %d/%d over %d bytes", id, i+1, iterations, len(region))
		}
	}
	if w.Pause > 0 {
		return pause(ctx, limiter)
	}
	return nil
}

func pause(ctx context.Context, limiter *rate.Limiter) error {
	if err := limiter.Wait(ctx); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return nil
}
