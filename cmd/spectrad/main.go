package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/SpectraCore/internal/infrastructure/config"
	"github.com/GriffinCanCode/SpectraCore/internal/infrastructure/server"
)

func main() {
	port := flag.String("port", "", "Listen port (overrides environment)")
	dataDir := flag.String("data", "", "Recording directory (overrides environment)")
	configFile := flag.String("config", "", "Configuration file, yaml or toml")
	dev := flag.Bool("dev", false, "Development mode: colored logs, debug level")
	flag.Parse()

	if *configFile != "" {
		os.Setenv("CONFIG_FILE", *configFile)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dataDir != "" {
		cfg.Writer.RootDir = *dataDir
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
