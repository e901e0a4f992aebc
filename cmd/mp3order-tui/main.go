package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/handiism/mp3order/internal/config"
	"github.com/handiism/mp3order/internal/tui"
)

func main() {
	var (
		configFlag = flag.String("config", config.DefaultPath(), "Path to config file")
		mirrorFlag = flag.String("mirror", "", "Mirror directory (overrides config)")
	)
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if flag.NArg() > 0 {
		settings.WorkDir = flag.Arg(0)
	}
	if *mirrorFlag != "" {
		settings.MirrorDir = *mirrorFlag
	}
	if settings.WorkDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: mp3order-tui [options] <dir>")
		os.Exit(1)
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
