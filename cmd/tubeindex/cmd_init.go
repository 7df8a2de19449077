package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/tubeindex/internal/config"
)

// handleInit implements the init subcommand
func handleInit(path string, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    tubeindex [-config <path>] init

DESCRIPTION:
    Write a commented default configuration file. An existing file is
    left untouched.
`)
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	created, err := config.WriteDefaultTemplate(path)
	if err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}
	if !created {
		fmt.Printf("Config already exists at %s\n", path)
		return
	}
	fmt.Printf("✅ Created default config at %s\n", path)
	fmt.Println("Set channel.url and the embedding model paths, then run `tubeindex collect`.")
}
