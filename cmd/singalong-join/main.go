// ABOUTME: Entry point for a singalong participant
// ABOUTME: Finds or dials a host and follows its session on this terminal
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
	cfg, err := config.LoadParticipant(os.Args[1:], os.Stderr)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if cfg.NoTUI {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	} else {
		log.SetOutput(f)
	}

	log.Printf("Starting %s %s participant: %s", version.Product, version.Version, cfg.Name)

	participant, err := app.NewParticipant(cfg, app.ParticipantOptions{})
	if err != nil {
		log.Fatalf("Failed to create participant: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Printf("Shutdown signal received")
		cancel()
	}()

	runErr := participant.Run(ctx)
	participant.Close()

	if runErr != nil {
		log.Printf("Left session: %v", runErr)
		os.Exit(1)
	}
	log.Printf("Participant stopped")
}
