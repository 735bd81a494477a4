package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"
	periphhost "periph.io/x/host/v3"

	display "github.com/BeatGlow/display-fsw"
	"github.com/BeatGlow/display-fsw/internal/host"
)

// Config is the application config file.
type Config struct {
	Table           string        `yaml:"table"`
	Telemetry       string        `yaml:"telemetry"`
	Pattern         string        `yaml:"pattern"`
	Pause           time.Duration `yaml:"pause"`
	Iterations      int           `yaml:"iterations"`
	ExerciseTimeout time.Duration `yaml:"exercise_timeout"`
	Debug           bool          `yaml:"debug"`
}

func main() {
	configFlag := flag.String("config", "", "Application config YAML file")
	tableFlag := flag.String("table", "display_tbl.bin", "Device table image")
	tlmFlag := flag.String("tlm", "", "Housekeeping telemetry output file (default: discard)")
	patternFlag := flag.String("pattern", "bitwalk", "Framebuffer test pattern (bitwalk, solid)")
	pauseFlag := flag.Duration("pause", display.DefaultPatternPause, "Pause between pattern iterations")
	iterFlag := flag.Int("iterations", display.DefaultPatternIterations, "Pattern iterations")
	timeoutFlag := flag.Duration("timeout", 0, "Exercise timeout (default: none)")
	debugFlag := flag.Bool("debug", false, "Debug logging")
	flag.Parse()

	config := Config{
		Table:           *tableFlag,
		Telemetry:       *tlmFlag,
		Pattern:         *patternFlag,
		Pause:           *pauseFlag,
		Iterations:      *iterFlag,
		ExerciseTimeout: *timeoutFlag,
		Debug:           *debugFlag,
	}
	if *configFlag != "" {
		f, err := os.Open(*configFlag)
		if err != nil {
			log.Fatalf("Cannot open config file: %s", err)
		}
		decoder := yaml.NewDecoder(f)
		decoder.KnownFields(true)
		err = decoder.Decode(&config)
		_ = f.Close()
		if err != nil {
			log.Fatalf("Cannot decode YAML config file: %s", err)
		}
	}

	level := slog.LevelInfo
	if config.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var pattern display.Pattern
	switch strings.ToLower(config.Pattern) {
	case "", "bitwalk":
		pattern = display.PatternBitWalk
	case "solid":
		pattern = display.PatternSolid
	default:
		log.Fatalf("invalid pattern %q", config.Pattern)
	}

	if _, err := periphhost.Init(); err != nil {
		log.Fatalln("periph init failed:", err)
	}

	appConfig := &host.Config{
		TablePath: config.Table,
		Session: display.SessionConfig{
			Patterns: &display.PatternWriter{Pause: config.Pause, Iterations: config.Iterations},
			Pattern:  pattern,
		},
		ExerciseTimeout: config.ExerciseTimeout,
		Logger:          logger,
	}
	if config.Telemetry != "" {
		f, err := os.OpenFile(config.Telemetry, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalln("open telemetry failed:", err)
		}
		defer f.Close()
		appConfig.Telemetry = f
	}

	app := host.New(appConfig)
	if err := app.Init(); err != nil {
		log.Fatalln("init failed:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipe := make(chan host.Message)
	go readCommands(ctx, pipe)

	if err := app.Run(ctx, pipe); err != nil && ctx.Err() == nil {
		log.Fatalln(err)
	}
}

// readCommands turns stdin lines into command pipe messages.
func readCommands(ctx context.Context, pipe chan<- host.Message) {
	defer close(pipe)
	s := bufio.NewScanner(os.Stdin)
	for s.Scan() {
		var msg host.Message
		switch line := strings.TrimSpace(s.Text()); line {
		case "":
			continue
		case "noop":
			msg = host.Message{ID: host.CommandMID, Code: host.NoopCC}
		case "reset":
			msg = host.Message{ID: host.CommandMID, Code: host.ResetCountersCC}
		case "process":
			msg = host.Message{ID: host.CommandMID, Code: host.ProcessCC}
		case "hk":
			msg = host.Message{ID: host.SendHkMID}
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q (noop, reset, process, hk)\n", line)
			continue
		}
		select {
		case pipe <- msg:
		case <-ctx.Done():
			return
		}
	}
}
