package seedlots

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/kuiperworks/kerf/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
)

// Constants for defect generation. Base rates are proportions defective;
// in-control lots vary within the noise band around their supplier's base
// rate, forced excursions multiply the base rate well past the 3-sigma
// limits.
const (
	baseRateMin        = 0.001
	baseRateSpread     = 0.004
	noiseBand          = 0.5 // +/-50% around the base rate
	excursionMultiple  = 8.0
	lotSizeMin         = 500
	lotSizeSpread      = 1500
	healthScoreMin     = 60
	healthScoreSpread  = 40
	inspectionInterval = time.Hour
)

// Demo supplier name pools.
var (
	foundryNames = []string{"Tessera Foundry", "Halcyon Semiconductor", "Kiln Works Fab", "Meridian Silicon"}
	osatNames    = []string{"Osiris OSAT", "Packline Assembly", "Crestline Test", "Vantage Packaging"}
	locations    = []string{"Dresden", "Hsinchu", "Penang", "Austin", "Kumamoto", "Singapore"}
	partNumbers  = []string{"PN-1042", "PN-2210", "PN-3307", "PN-4815", "PN-5591"}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// pick returns a random element of pool.
func pick(pool []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
	return pool[n.Int64()]
}

// generateSuppliers creates the demo supplier fleet, alternating foundries
// and OSATs. Base defect rates are attached per supplier so each one plots
// a coherent p-chart.
func generateSuppliers(ctx context.Context, config *Config) ([]Supplier, map[string]float64) {
	logger.Get().Info(ctx, "generating demo suppliers", logger.Int("count", config.Suppliers))

	suppliers := make([]Supplier, config.Suppliers)
	baseRates := make(map[string]float64, config.Suppliers)

	for i := range suppliers {
		id := fmt.Sprintf("sup-%03d", i+1)
		supplierType := "foundry"
		name := pick(foundryNames)
		if i%2 == 1 {
			supplierType = "osat"
			name = pick(osatNames)
		}
		suppliers[i] = Supplier{
			ID:          id,
			Name:        fmt.Sprintf("%s %d", name, i+1),
			Type:        supplierType,
			Location:    pick(locations),
			HealthScore: healthScoreMin + int(getRandomFloat()*healthScoreSpread),
			CertStatus:  "AS9100D",
		}
		baseRates[id] = baseRateMin + getRandomFloat()*baseRateSpread
	}

	return suppliers, baseRates
}

// generateLots creates the lot reports, distributing them round-robin over
// the suppliers. The last config.Excursions lots get a defect rate several
// multiples of their supplier's base rate so control-limit evaluation has
// something to flag.
func generateLots(ctx context.Context, config *Config, suppliers []Supplier, baseRates map[string]float64, stats *Stats) ([]LotReport, error) {
	if len(suppliers) == 0 {
		return nil, fmt.Errorf("no suppliers to assign lots to")
	}

	logger.Get().Info(ctx, "generating lot reports",
		logger.Int("numLots", config.NumLots),
		logger.Int("excursions", config.Excursions))

	lots := make([]LotReport, config.NumLots)
	start := time.Now().UTC().Add(-time.Duration(config.NumLots) * inspectionInterval)

	for i := range lots {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during lot generation: %w", ctx.Err())
		default:
		}

		supplier := suppliers[i%len(suppliers)]
		rate := baseRates[supplier.ID]

		// Jitter within the noise band; excursion lots blow past the limits.
		jitter := 1 + noiseBand*(2*getRandomFloat()-1)
		effective := rate * jitter
		if i >= config.NumLots-config.Excursions {
			effective = rate * excursionMultiple
		}

		lotSize := lotSizeMin + int(getRandomFloat()*lotSizeSpread)
		defects := int(effective * float64(lotSize))
		if defects > lotSize {
			defects = lotSize
		}

		lots[i] = LotReport{
			ReportID:       uuid.New().String(),
			SupplierID:     supplier.ID,
			LotID:          fmt.Sprintf("lot-%s-%05d", supplier.ID, i+1),
			PartNumber:     pick(partNumbers),
			InspectionDate: start.Add(time.Duration(i) * inspectionInterval).Format(time.RFC3339),
			LotSize:        lotSize,
			DefectCount:    defects,
		}
	}

	stats.LotsGenerated = len(lots)
	logger.Get().Info(ctx, "generated lot reports", logger.Int("count", len(lots)))

	return lots, nil
}
