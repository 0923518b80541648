package quality

import (
	"fmt"
	"math"
)

// Minimum number of measurements for a defined sample standard deviation.
const minCapabilitySamples = 2

// CapabilityResult describes how well a measured process fits within its
// engineering specification limits.
type CapabilityResult struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	CPU    float64 `json:"cpu"`
	CPL    float64 `json:"cpl"`
	Cpk    float64 `json:"cpk"`
}

// Capability computes the Cpk index for a set of measurements against the
// upper and lower specification limits. The standard deviation uses the
// n-1 sample denominator. A zero-variance series is rejected rather than
// reported as infinite capability.
func Capability(measurements []float64, usl, lsl float64) (CapabilityResult, error) {
	if len(measurements) < minCapabilitySamples {
		return CapabilityResult{}, fmt.Errorf("%w: need at least %d measurements, got %d", ErrInvalidInput, minCapabilitySamples, len(measurements))
	}
	if usl <= lsl {
		return CapabilityResult{}, fmt.Errorf("%w: USL %g must exceed LSL %g", ErrInvalidInput, usl, lsl)
	}

	var sum float64
	for _, v := range measurements {
		sum += v
	}
	mean := sum / float64(len(measurements))

	var squared float64
	for _, v := range measurements {
		d := v - mean
		squared += d * d
	}
	stdDev := math.Sqrt(squared / float64(len(measurements)-1))
	if stdDev == 0 {
		return CapabilityResult{}, fmt.Errorf("%w: zero variance, capability undefined", ErrInvalidInput)
	}

	cpu := (usl - mean) / (controlSigma * stdDev)
	cpl := (mean - lsl) / (controlSigma * stdDev)

	return CapabilityResult{
		Mean:   mean,
		StdDev: stdDev,
		CPU:    cpu,
		CPL:    cpl,
		Cpk:    math.Min(cpu, cpl),
	}, nil
}
