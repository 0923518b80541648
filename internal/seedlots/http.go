package seedlots

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// GetWithAccept performs a GET request with an Accept header.
func (c *HTTPClient) GetWithAccept(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// registerSuppliers registers the demo suppliers sequentially; the fleet is
// small and registration must finish before lots reference the IDs.
func registerSuppliers(ctx context.Context, config *Config, suppliers []Supplier, stats *Stats) error {
	log.Printf("Registering %d demo suppliers...", len(suppliers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/suppliers"

	for _, supplier := range suppliers {
		resp, err := client.Post(ctx, url, supplier)
		if err != nil {
			return fmt.Errorf("failed to register supplier %s: %w", supplier.ID, err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return fmt.Errorf("failed to read registration response for %s: %w", supplier.ID, err)
		}
		if resp.StatusCode != StatusOK {
			return fmt.Errorf("supplier %s registration failed with HTTP %d: %s", supplier.ID, resp.StatusCode, string(body))
		}
		stats.SuppliersRegistered++
	}

	log.Printf("Registered %d suppliers", stats.SuppliersRegistered)
	return nil
}

// submitLots submits lot reports concurrently using worker pools
func submitLots(ctx context.Context, config *Config, lots []LotReport, stats *Stats) error {
	log.Printf("Submitting %d lot reports with %d workers...", len(lots), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/lots"

	// Counters for statistics
	var (
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	lotChan := make(chan LotReport, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for lot := range lotChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleLot(ctx, client, url, lot)

					// Update counters
					atomic.AddInt64(&submitted, 1)
					switch result {
					case "success":
						atomic.AddInt64(&successful, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						succ := atomic.LoadInt64(&successful)
						dup := atomic.LoadInt64(&duplicate)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("Progress: %d/%d submitted (success: %d, duplicate: %d, failed: %d)",
								total, len(lots), succ, dup, fail)
						} else {
							fmt.Printf("\rSubmitted: %d/%d (success: %d, duplicate: %d, failed: %d)",
								total, len(lots), succ, dup, fail)
						}
					}
				}
			}
		}(i)
	}

	// Send lots to workers
	go func() {
		defer close(lotChan)
		for _, lot := range lots {
			select {
			case <-ctx.Done():
				return
			case lotChan <- lot:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.LotsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.LotsSuccessful = int(atomic.LoadInt64(&successful))
	stats.LotsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.LotsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`Lot submission completed:
   Successful: %d
   Duplicate: %d
   Failed: %d
`, stats.LotsSuccessful, stats.LotsDuplicate, stats.LotsFailed)

	return nil
}

// submitSingleLot submits a single lot report and returns the result.
// Backpressure (429) is retried once after a short pause.
func submitSingleLot(ctx context.Context, client *HTTPClient, url string, lot LotReport) string {
	for attempt := 0; attempt < 2; attempt++ {
		resp, err := client.Post(ctx, url, lot)
		if err != nil {
			return "failed"
		}

		body, err := readResponseBody(resp)
		if err != nil {
			return "failed"
		}

		switch resp.StatusCode {
		case StatusAccepted:
			return "success"
		case StatusOK:
			var ack AckResponse
			if err := unmarshalJSON(body, &ack); err == nil && ack.Duplicate {
				return "duplicate"
			}
			return "duplicate"
		case http.StatusTooManyRequests:
			select {
			case <-ctx.Done():
				return "failed"
			case <-time.After(100 * time.Millisecond):
			}
			continue
		default:
			return "failed"
		}
	}
	return "failed"
}
