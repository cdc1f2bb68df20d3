package main

import (
	"NetSentry/internal/config"
	"NetSentry/internal/engine"
	"NetSentry/pkg/pcap"
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Parse()

	// 1. Get pcap file path from command-line arguments
	if flag.NArg() < 1 {
		fmt.Println("Usage: pcap-analyzer [-config path] <path_to_pcap_file>")
		os.Exit(1)
	}
	pcapFilePath := flag.Arg(0)

	// 2. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 3. Build the detection engine
	eng, err := engine.New(&cfg.Engine)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	reader, err := pcap.NewReader(pcapFilePath)
	if err != nil {
		log.Fatalf("Failed to open pcap file: %v", err)
	}
	defer reader.Close()
	log.Printf("Reading packets from '%s'...", pcapFilePath)

	// 4. Run the pipeline over the whole file
	eng.Start()
	reader.ReadPackets(eng.Ingest)
	log.Println("Finished reading all packets from pcap file.")

	// 5. Stop drains every remaining flow through the classifier
	eng.Stop()

	// 6. Report
	stats := eng.Store().ComputeStats()
	fmt.Printf("\n=== Analysis of %s ===\n", pcapFilePath)
	fmt.Printf("Flows classified:  %d\n", stats.TotalFlows)
	fmt.Printf("Attacks detected:  %d (%.2f%%)\n", stats.TotalAttacks, stats.AttackRatio)
	if stats.TotalAttacks > 0 {
		fmt.Printf("Most frequent:     %s\n", stats.MostFrequentAttack)
		fmt.Println("Attack breakdown:")
		for attackType, count := range stats.AttackTypeDistribution {
			fmt.Printf("  %-24s %d\n", attackType, count)
		}
	}

	for _, e := range eng.Store().Recent(20) {
		if !e.IsAttack {
			continue
		}
		fmt.Printf("[%s] %s:%d -> %s:%d %s %s (confidence %.3f)\n",
			e.Severity, e.SrcIP, e.SrcPort, e.DstIP, e.DstPort, e.Protocol,
			e.AttackType, e.BinaryConfidence)
	}
}
