package seedlots

import (
	"bytes"
	"context"
	"fmt"
	"log"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/kuiperworks/kerf/pkg/logger"
)

// Metric names checked against the /healthz exposition.
const (
	metricLotsProcessed = "kerf_sqe_lots_processed_total"
	metricExcursions    = "kerf_sqe_excursions_detected_total"
	metricAlertsRaised  = "kerf_sqe_alerts_raised_total"
	metricSuppliers     = "kerf_sqe_total_suppliers"
)

// fetchScorecard retrieves the supplier scorecard.
func fetchScorecard(ctx context.Context, config *Config, stats *Stats) ([]ScorecardCard, error) {
	log.Println("Fetching scorecard...")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/scorecard")
	if err != nil {
		return nil, fmt.Errorf("scorecard request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read scorecard response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var cards []ScorecardCard
	if err := unmarshalJSON(body, &cards); err != nil {
		return nil, fmt.Errorf("failed to parse scorecard: %w", err)
	}

	stats.CardsRetrieved = len(cards)
	log.Printf("Retrieved %d scorecard rows", len(cards))
	return cards, nil
}

// fetchAlerts retrieves the recent alert feed.
func fetchAlerts(ctx context.Context, config *Config, stats *Stats) ([]Alert, error) {
	log.Println("Fetching alerts...")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/alerts")
	if err != nil {
		return nil, fmt.Errorf("alerts request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read alerts response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var feed []Alert
	if err := unmarshalJSON(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse alerts: %w", err)
	}

	stats.AlertsRetrieved = len(feed)
	log.Printf("Retrieved %d alerts", len(feed))
	return feed, nil
}

// scrapeMetrics fetches /healthz and parses the Prometheus exposition.
func scrapeMetrics(ctx context.Context, config *Config) (map[string]*dto.MetricFamily, error) {
	client := newHTTPClient(config.Timeout)
	accept := string(expfmt.NewFormat(expfmt.TypeTextPlain))

	resp, err := client.GetWithAccept(ctx, config.BaseURL+"/healthz", accept)
	if err != nil {
		return nil, fmt.Errorf("metrics scrape failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d scraping metrics", resp.StatusCode)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse metrics exposition: %w", err)
	}
	return families, nil
}

// metricValue sums a family's samples across label sets. Returns zero for
// an absent family; counters the service never incremented are not exported.
func metricValue(families map[string]*dto.MetricFamily, name string) float64 {
	family, ok := families[name]
	if !ok {
		return 0
	}
	total := 0.0
	for _, m := range family.GetMetric() {
		switch {
		case m.GetCounter() != nil:
			total += m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			total += m.GetGauge().GetValue()
		}
	}
	return total
}

// verifyResults cross-checks the scorecard, alert feed, and service metrics
// against what the run submitted.
func verifyResults(ctx context.Context, config *Config, cards []ScorecardCard, alertFeed []Alert, stats *Stats) error {
	log.Println("Verifying results...")

	if len(cards) == 0 {
		return fmt.Errorf("no scorecard rows to verify")
	}

	withData := 0
	for _, card := range cards {
		if card.HasData {
			withData++
		}
	}
	if withData == 0 {
		return fmt.Errorf("no supplier shows inspection data; lots were not processed")
	}

	if config.Excursions > 0 && len(alertFeed) == 0 {
		log.Printf("Warning: %d excursion lots were forced but the alert feed is empty", config.Excursions)
	}

	families, err := scrapeMetrics(ctx, config)
	if err != nil {
		return err
	}

	processed := metricValue(families, metricLotsProcessed)
	excursions := metricValue(families, metricExcursions)
	alertsRaised := metricValue(families, metricAlertsRaised)
	suppliers := metricValue(families, metricSuppliers)

	logger.Get().Info(ctx, "service metrics",
		logger.Float64("lots_processed", processed),
		logger.Float64("excursions_detected", excursions),
		logger.Float64("alerts_raised", alertsRaised),
		logger.Float64("suppliers", suppliers))

	if int(processed) < stats.LotsSuccessful {
		return fmt.Errorf("service processed %d lots but %d were accepted", int(processed), stats.LotsSuccessful)
	}
	if int(suppliers) < stats.SuppliersRegistered {
		return fmt.Errorf("service reports %d suppliers but %d were registered", int(suppliers), stats.SuppliersRegistered)
	}
	if config.Excursions > 0 && excursions == 0 {
		log.Println("Warning: no excursions detected despite forced out-of-control lots")
	}

	displayScorecard(cards, alertFeed, config.Verbose)

	log.Println("Result verification completed")
	return nil
}

// displayScorecard prints the scorecard rows and a sample of the alert feed.
func displayScorecard(cards []ScorecardCard, alertFeed []Alert, verbose bool) {
	log.Printf("Scorecard (%d suppliers):", len(cards))
	for _, card := range cards {
		if card.HasData {
			log.Printf("   %s (%s): health=%s dppm=%.0f (%s)",
				card.SupplierID, card.Name, card.HealthRating, card.DPPM, card.DPPMRating)
		} else {
			log.Printf("   %s (%s): health=%s no inspection data",
				card.SupplierID, card.Name, card.HealthRating)
		}
	}

	if len(alertFeed) == 0 {
		return
	}

	shown := len(alertFeed)
	if !verbose && shown > 10 {
		shown = 10
	}
	log.Printf("Recent alerts (%d of %d):", shown, len(alertFeed))
	for _, alert := range alertFeed[:shown] {
		log.Printf("   [%s/%s] %s", alert.Kind, alert.Severity, alert.Message)
	}
}
