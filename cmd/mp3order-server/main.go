package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/handiism/mp3order/internal/config"
	"github.com/handiism/mp3order/internal/server"
)

func main() {
	var (
		configFlag = flag.String("config", config.DefaultPath(), "Path to config file")
		addrFlag   = flag.String("addr", "", "Listen address (overrides config)")
		mirrorFlag = flag.String("mirror", "", "Mirror directory (overrides config)")
	)
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if flag.NArg() > 0 {
		settings.WorkDir = flag.Arg(0)
	}
	if *addrFlag != "" {
		settings.ServerAddress = *addrFlag
	}
	if *mirrorFlag != "" {
		settings.MirrorDir = *mirrorFlag
	}
	if settings.WorkDir == "" {
		log.Fatalf("Usage: mp3order-server [options] <dir>")
	}

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := server.New(settings).Run(ctx, settings.ServerAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
