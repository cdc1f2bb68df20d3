package main

import (
	"NetSentry/internal/api"
	"NetSentry/internal/config"
	"NetSentry/internal/engine"
	"NetSentry/internal/probe"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Parse()

	log.Println("Starting sentry-engine...")

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Build the detection engine (loads model artifacts, connects sinks)
	eng, err := engine.New(&cfg.Engine)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	// 3. Start the engine workers and flow scheduler
	eng.Start()

	// 4. Subscribe to the packet feed from the probes
	sub, err := probe.NewSubscriber(cfg.Engine.NATSURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	if err := sub.Start(cfg.Engine.PacketsSubject, eng.Ingest); err != nil {
		log.Fatalf("Failed to subscribe to packet feed: %v", err)
	}

	// 5. Start the HTTP API
	server := api.NewServer(cfg.Engine.API.ListenAddr, eng.Store(), eng.Pipeline(), eng.Registry())
	server.Start()

	// 6. Wait for a shutdown signal for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("API server forced to shutdown: %v", err)
	}

	sub.Close()
	eng.Stop()
	log.Println("Shutdown complete.")
}
