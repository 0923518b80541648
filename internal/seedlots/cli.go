package seedlots

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/kuiperworks/kerf/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "seed_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the seed-lots tool.
func ShowHelp() {
	os.Stdout.WriteString(`Kerf Lot Seeding Tool
=====================

Registers a demo supplier fleet, submits generated lot inspection
reports, and verifies the scorecard, alert feed, and service metrics.

Usage:
  go run cmd/seed-lots/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -lots int
        Number of lot reports to generate and submit (default 2000)
  -suppliers int
        Number of demo suppliers to register (default 8)
  -excursions int
        Number of forced out-of-control lots (default 10)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -wait duration
        Wait for the pipeline to drain before reading back (default 10s)
  -output string
        Output file for generated lots (default: generated_lots_TIMESTAMP.json)
  -log string
        Log file for run output (default: seed_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Seed with default settings
  go run cmd/seed-lots/main.go

  # Seed a larger fleet with more history
  go run cmd/seed-lots/main.go -lots 10000 -suppliers 20 -workers 16

  # Seed without forced excursions
  go run cmd/seed-lots/main.go -excursions 0
`)
}
