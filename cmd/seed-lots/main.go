package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/kuiperworks/kerf/internal/seedlots"
)

// Default configuration constants.
const (
	defaultNumLots     = 2000
	defaultSuppliers   = 8
	defaultExcursions  = 10
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultProcessWait = 10 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numLots     = flag.Int("lots", defaultNumLots, "Number of lot reports to generate and submit")
		suppliers   = flag.Int("suppliers", defaultSuppliers, "Number of demo suppliers to register")
		excursions  = flag.Int("excursions", defaultExcursions, "Number of forced out-of-control lots")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		processWait = flag.Duration("wait", defaultProcessWait, "Wait for the pipeline to drain before reading back")
		outputFile  = flag.String("output", "", "Output file for generated lots (default: generated_lots_TIMESTAMP.json)")
		logFile     = flag.String("log", "", "Log file for run output (default: seed_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seedlots.ShowHelp()
		return
	}

	// Setup logging
	if err := seedlots.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create run configuration
	config := &seedlots.Config{
		BaseURL:     *baseURL,
		NumLots:     *numLots,
		Suppliers:   *suppliers,
		Excursions:  *excursions,
		Workers:     *workers,
		Timeout:     *timeout,
		ProcessWait: *processWait,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	// Run the seeding flow
	if err := seedlots.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Seeding run failed: " + err.Error() + "\n")
		return
	}
}
