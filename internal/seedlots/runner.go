package seedlots

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kuiperworks/kerf/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete seeding and verification flow.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting kerf lot seeding run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("lots", config.NumLots),
		logger.Int("suppliers", config.Suppliers),
		logger.Int("excursions", config.Excursions),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Register the demo supplier fleet
	suppliers, baseRates := generateSuppliers(ctx, config)
	if err := registerSuppliers(ctx, config, suppliers, stats); err != nil {
		return fmt.Errorf("supplier registration failed: %w", err)
	}

	// Step 3: Generate lot reports
	lots, err := generateLots(ctx, config, suppliers, baseRates, stats)
	if err != nil {
		return fmt.Errorf("lot generation failed: %w", err)
	}

	// Step 4: Submit lots concurrently
	if err := submitLots(ctx, config, lots, stats); err != nil {
		return fmt.Errorf("lot submission failed: %w", err)
	}

	// Step 5: Wait for the pipeline to drain
	logger.Get().Info(ctx, "waiting for lots to be evaluated",
		logger.String("wait", config.ProcessWait.String()))
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for processing: %w", ctx.Err())
	case <-time.After(config.ProcessWait):
	}

	// Step 6: Read back the scorecard and alert feed
	cards, err := fetchScorecard(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("scorecard retrieval failed: %w", err)
	}
	alertFeed, err := fetchAlerts(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("alert retrieval failed: %w", err)
	}

	// Step 7: Verify results against the service metrics
	if err := verifyResults(ctx, config, cards, alertFeed, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Save generated lots to file
	if err := saveLotsToFile(ctx, config, lots); err != nil {
		logger.Get().Warn(ctx, "failed to save lots to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "seeding run completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 counts as healthy; the endpoint serves Prometheus metrics.
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveLotsToFile saves the generated lot reports to a JSON file.
func saveLotsToFile(ctx context.Context, config *Config, lots []LotReport) error {
	if len(lots) == 0 {
		return fmt.Errorf("no lots to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_lots_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write lots to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, lot := range lots {
		jsonData, err := marshalJSON(lot)
		if err != nil {
			return fmt.Errorf("failed to marshal lot %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write lot %d: %w", i, err)
		}

		// Add comma except for last lot
		if i < len(lots)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "lots saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var successRate, lotsPerSecond float64

	if stats.LotsSubmitted > 0 {
		successRate = float64(stats.LotsSuccessful) / float64(stats.LotsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		lotsPerSecond = float64(stats.LotsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("suppliersRegistered", stats.SuppliersRegistered),
		logger.Int("lotsGenerated", stats.LotsGenerated),
		logger.Int("lotsSubmitted", stats.LotsSubmitted),
		logger.Int("lotsSuccessful", stats.LotsSuccessful),
		logger.Int("lotsDuplicate", stats.LotsDuplicate),
		logger.Int("lotsFailed", stats.LotsFailed),
		logger.Int("cardsRetrieved", stats.CardsRetrieved),
		logger.Int("alertsRetrieved", stats.AlertsRetrieved),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("lotsPerSecond", lotsPerSecond))
}
