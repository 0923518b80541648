// Package quality implements the statistical calculations behind the
// supplier quality program: p-chart control limits, process capability,
// and weighted multi-criteria ranking. Every function is a pure,
// deterministic computation over its arguments.
package quality

import (
	"fmt"
	"math"
	"time"
)

// Shewhart control charts place limits three standard deviations from
// the center line.
const controlSigma = 3.0

// LotSample is a single inspected lot in a p-chart series.
type LotSample struct {
	LotID          string    `json:"lot_id"`
	InspectionDate time.Time `json:"inspection_date"`
	LotSize        int       `json:"lot_size"`
	DefectCount    int       `json:"defect_count"`
}

// Proportion returns the sample's proportion defective.
func (s LotSample) Proportion() float64 {
	return float64(s.DefectCount) / float64(s.LotSize)
}

// ControlLimitsResult holds the p-chart parameters for a lot series.
// Flags is aligned with the input order; a true entry marks a sample
// whose proportion defective falls outside [LCL, UCL].
type ControlLimitsResult struct {
	CenterLine  float64 `json:"center_line"`
	UCL         float64 `json:"ucl"`
	LCL         float64 `json:"lcl"`
	MeanLotSize float64 `json:"mean_lot_size"`
	Flags       []bool  `json:"flags"`
}

// ControlLimits computes p-chart control limits for an ordered series of
// lot samples. The center line is the pooled proportion defective across
// all lots, and the limits sit controlSigma standard errors away using
// the mean lot size. The LCL is floored at zero.
func ControlLimits(samples []LotSample) (ControlLimitsResult, error) {
	if len(samples) == 0 {
		return ControlLimitsResult{}, fmt.Errorf("%w: empty sample sequence", ErrInvalidInput)
	}

	var totalDefects, totalInspected int
	for i, s := range samples {
		if s.LotSize <= 0 {
			return ControlLimitsResult{}, fmt.Errorf("%w: sample %d: lot size must be positive, got %d", ErrInvalidInput, i, s.LotSize)
		}
		if s.DefectCount < 0 || s.DefectCount > s.LotSize {
			return ControlLimitsResult{}, fmt.Errorf("%w: sample %d: defect count %d outside [0, %d]", ErrInvalidInput, i, s.DefectCount, s.LotSize)
		}
		totalDefects += s.DefectCount
		totalInspected += s.LotSize
	}

	pBar := float64(totalDefects) / float64(totalInspected)
	nBar := float64(totalInspected) / float64(len(samples))
	margin := controlSigma * math.Sqrt(pBar*(1-pBar)/nBar)

	result := ControlLimitsResult{
		CenterLine:  pBar,
		UCL:         pBar + margin,
		LCL:         math.Max(0, pBar-margin),
		MeanLotSize: nBar,
		Flags:       make([]bool, len(samples)),
	}
	for i, s := range samples {
		p := s.Proportion()
		result.Flags[i] = p < result.LCL || p > result.UCL
	}

	return result, nil
}
