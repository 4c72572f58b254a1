// ABOUTME: Entry point for the singalong host
// ABOUTME: Loads configuration, sets up logging, and runs one hosted session
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Resonate-Protocol/singalong-go/internal/app"
	"github.com/Resonate-Protocol/singalong-go/internal/config"
	"github.com/Resonate-Protocol/singalong-go/internal/version"
)

func main() {
	cfg, err := config.LoadHost(os.Args[1:], os.Stderr)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Set up logging
	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if cfg.NoTUI {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	} else {
		// TUI mode: log only to file
		log.SetOutput(f)
	}

	log.Printf("Starting %s %s host: %s", version.Product, version.Version, cfg.Name)
	log.Printf("Song: %s", cfg.SongLocation)

	host, err := app.NewHost(cfg, app.HostOptions{})
	if err != nil {
		log.Fatalf("Failed to create host: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down...", sig)
		cancel()
	}()

	runErr := host.Run(ctx)
	host.Close()

	if runErr != nil {
		log.Printf("Session failed: %v", runErr)
		os.Exit(1)
	}
	log.Printf("Host stopped")
}
