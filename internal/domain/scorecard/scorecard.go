// Package scorecard classifies supplier health and rolls up fleet summaries.
package scorecard

import (
	"math"

	"github.com/kuiperworks/kerf/internal/domain/model"
)

// Rating bands.
const (
	RatingGood     = "good"
	RatingWatch    = "watch"
	RatingCritical = "critical"
)

// Default classification bounds.
const (
	defaultHealthGood  = 90
	defaultHealthWatch = 70
	defaultDPPMGood    = 100.0
	defaultDPPMWatch   = 200.0
)

// Thresholds hold the classification bounds for health scores and DPPM.
type Thresholds struct {
	HealthGood  int     // scores at or above rate "good"
	HealthWatch int     // scores at or above rate "watch", below rate "critical"
	DPPMGood    float64 // rates strictly below rate "good"
	DPPMWatch   float64 // rates strictly below rate "watch", at or above "critical"
}

// DefaultThresholds returns the stock classification bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HealthGood:  defaultHealthGood,
		HealthWatch: defaultHealthWatch,
		DPPMGood:    defaultDPPMGood,
		DPPMWatch:   defaultDPPMWatch,
	}
}

// HealthRating classifies a composite health score.
func (t Thresholds) HealthRating(score int) string {
	switch {
	case score >= t.HealthGood:
		return RatingGood
	case score >= t.HealthWatch:
		return RatingWatch
	default:
		return RatingCritical
	}
}

// DPPMRating classifies a defect rate in parts per million.
func (t Thresholds) DPPMRating(dppm float64) string {
	switch {
	case dppm < t.DPPMGood:
		return RatingGood
	case dppm < t.DPPMWatch:
		return RatingWatch
	default:
		return RatingCritical
	}
}

// Card is one supplier's scorecard row.
type Card struct {
	SupplierID   string  `json:"supplier_id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	HealthScore  int     `json:"health_score"`
	HealthRating string  `json:"health_rating"`
	CertStatus   string  `json:"cert_status"`
	OpenFailures int     `json:"open_failures"`
	HasData      bool    `json:"has_data"`
	Yield        float64 `json:"yield"`
	DPPM         float64 `json:"dppm"`
	DPPMRating   string  `json:"dppm_rating,omitempty"`
}

// BuildCard assembles the scorecard row for one supplier. latest may be nil
// when the supplier has no inspection data yet.
func BuildCard(supplier model.Supplier, latest *model.LotReport, openFailures int, bounds Thresholds) Card {
	card := Card{
		SupplierID:   supplier.ID,
		Name:         supplier.Name,
		Type:         supplier.Type,
		HealthScore:  supplier.HealthScore,
		HealthRating: bounds.HealthRating(supplier.HealthScore),
		CertStatus:   supplier.CertStatus,
		OpenFailures: openFailures,
	}
	if latest != nil {
		card.HasData = true
		card.Yield = latest.Yield
		card.DPPM = latest.DPPM()
		card.DPPMRating = bounds.DPPMRating(card.DPPM)
	}
	return card
}

// Summary is the fleet-level rollup.
type Summary struct {
	Suppliers    int     `json:"suppliers"`
	MeanHealth   int     `json:"mean_health"`
	ActiveIssues int     `json:"active_issues"`
	MeanYield    float64 `json:"mean_yield"`
	MeanDPPM     float64 `json:"mean_dppm"`
}

// Summarize rolls a fleet of cards into one summary. Mean yield and DPPM
// cover only suppliers with inspection data; mean health is floored to an
// int, which is how the scorecard displays it.
func Summarize(cards []Card, activeIssues int) Summary {
	s := Summary{Suppliers: len(cards), ActiveIssues: activeIssues}
	if len(cards) == 0 {
		return s
	}

	healthTotal := 0
	withData := 0
	var yieldTotal, dppmTotal float64
	for _, card := range cards {
		healthTotal += card.HealthScore
		if card.HasData {
			withData++
			yieldTotal += card.Yield
			dppmTotal += card.DPPM
		}
	}

	s.MeanHealth = int(math.Floor(float64(healthTotal) / float64(len(cards))))
	if withData > 0 {
		s.MeanYield = yieldTotal / float64(withData)
		s.MeanDPPM = dppmTotal / float64(withData)
	}
	return s
}
