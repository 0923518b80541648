package metrics

import (
	"errors"
)

// ErrObserveFailed marks a metric observation that could not be applied,
// for callers that wrap instrumentation failures instead of dropping them.
var ErrObserveFailed = errors.New("metric observation failed")
