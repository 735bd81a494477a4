package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
	"periph.io/x/host/v3"

	display "github.com/BeatGlow/display-fsw"
)

func main() {
	scriptFlag := flag.Bool("script", false, "Print the bring-up list as a YAML command script")
	runFlag := flag.Bool("run", false, "Initialize the device and exercise it once")
	rotateFlag := flag.String("rotate", "", "Override the table rotation")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-script] [-run] <table image>\n", os.Args[0])
		os.Exit(1)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fatal(err)
	}
	table, err := display.DecodeTable(data)
	if err != nil {
		fatal(err)
	}
	if *rotateFlag != "" {
		rotation, ok := display.ParseRotation(*rotateFlag)
		if !ok {
			fatal(fmt.Errorf("invalid rotation %q specified", *rotateFlag))
		}
		table.Rotation = rotation
	}

	fmt.Printf("table: %s\n", table)
	if err = display.Validate(table); err != nil {
		fmt.Printf("validation: %v\n", err)
	} else {
		fmt.Println("validation: ok")
	}

	if table.Transport == display.TransportSPI {
		list, window, err := display.BringUp(table.Variant, table.Rotation)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("controller: %s, window %s\n", table.Variant.Controller().Name, window)
		if *scriptFlag {
			enc := yaml.NewEncoder(os.Stdout)
			if err = enc.Encode(list); err != nil {
				fatal(err)
			}
			_ = enc.Close()
		} else {
			for i, cmd := range list {
				fmt.Printf("%3d: %s\n", i, cmd)
			}
		}
	}

	if !*runFlag {
		return
	}

	if _, err = host.Init(); err != nil {
		fatal(err)
	}
	s := display.NewSession(&display.SessionConfig{
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	if err = s.Initialize(table); err != nil {
		fatal(err)
	}
	defer s.Close()
	if table.Transport == display.TransportFramebuffer {
		fmt.Printf("using framebuffer: %s\n", s.Geometry())
	}
	if err = s.ExerciseOnce(context.Background()); err != nil {
		fatal(err)
	}
	fmt.Println("exercise: ok")
}

func fatal(err error) {
	log.Fatalln(err)
}
