package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	display "github.com/BeatGlow/display-fsw"
)

func main() {
	outFlag := flag.String("o", "display_tbl.bin", "Output table image")
	checkFlag := flag.Bool("validate", false, "Also validate the table against this host")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-o <image>] <table.yaml>\n", os.Args[0])
		os.Exit(1)
	}

	src, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalln(err)
	}

	table := display.DefaultTable
	if err = yaml.Unmarshal(src, &table); err != nil {
		log.Fatalf("Cannot decode YAML table: %s", err)
	}
	if *checkFlag {
		if err = display.Validate(&table); err != nil {
			log.Fatalln(err)
		}
	}

	data, err := table.MarshalBinary()
	if err != nil {
		log.Fatalln(err)
	}
	if err = os.WriteFile(*outFlag, data, 0o644); err != nil {
		log.Fatalln(err)
	}
	fmt.Printf("wrote %s: %s (%d bytes)\n", *outFlag, &table, len(data))
}
