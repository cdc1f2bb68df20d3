package main

import (
	"NetSentry/internal/capture"
	"NetSentry/internal/config"
	"NetSentry/internal/probe"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	mode := flag.String("mode", "pub", "Operating mode: 'pub' to capture and publish, 'sub' to subscribe and print.")
	iface := flag.String("iface", "", "Interface to capture from; overrides the configured one.")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *iface != "" {
		cfg.Probe.Interface = *iface
	}

	switch *mode {
	case "pub":
		runProbe(&cfg.Probe)
	case "sub":
		runSubscriber(&cfg.Probe)
	default:
		fmt.Fprintf(os.Stderr, "Invalid mode: %s\n", *mode)
		flag.Usage()
		os.Exit(1)
	}
}

// runProbe captures packets from the configured interface and publishes them
// to NATS for the engine to consume.
func runProbe(cfg *config.ProbeConfig) {
	if cfg.Interface == "" {
		log.Println("Error: no capture interface configured (set probe.interface or -iface).")
		flag.Usage()
		os.Exit(1)
	}
	log.Printf("Starting sentry-probe in PROBE mode on interface: %s", cfg.Interface)

	pub, err := probe.NewPublisher(cfg.NATSURL, cfg.Subject)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer pub.Close()

	published := 0
	sniffer := capture.NewSniffer(cfg.Interface, func(pkt *capture.ParsedPacket) {
		if err := pub.Publish(pkt); err != nil {
			log.Printf("Failed to publish packet: %v", err)
			return
		}
		published++
		if published%1000 == 0 {
			log.Printf("%d packets published...", published)
		}
	})
	if err := sniffer.Start(); err != nil {
		log.Fatalf("Failed to start capture: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, cleaning up...")
	sniffer.Stop()
}

// runSubscriber prints every packet envelope on the subject. Useful for
// checking that probes are actually feeding the bus.
func runSubscriber(cfg *config.ProbeConfig) {
	log.Println("Starting sentry-probe in SUBSCRIBER mode...")

	sub, err := probe.NewSubscriber(cfg.NATSURL)
	if err != nil {
		log.Fatalf("Failed to create subscriber: %v", err)
	}
	defer sub.Close()

	handler := func(pkt *capture.ParsedPacket) {
		log.Printf("Received packet: %s:%d -> %s:%d proto=%d size=%d",
			pkt.Tuple.SrcIP, pkt.Tuple.SrcPort, pkt.Tuple.DstIP, pkt.Tuple.DstPort,
			pkt.Tuple.Protocol, pkt.Event.Size)
	}
	if err := sub.Start(cfg.Subject, handler); err != nil {
		log.Fatalf("Subscriber failed to start: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
}
