package render

import (
	"time"

	"golang.org/x/time/rate"
)

// Capture cadence is decoupled from the source: an unbounded or zero source
// rate must not drive capture. The reported rate is clamped to [10, 60] fps;
// unavailable falls back to 30.
const (
	minCaptureFPS     = 10.0
	maxCaptureFPS     = 60.0
	defaultCaptureFPS = 30.0
)

func captureFPS(reported float64) float64 {
	if reported != reported || reported <= 0 { // NaN or unavailable
		return defaultCaptureFPS
	}
	if reported < minCaptureFPS {
		return minCaptureFPS
	}
	if reported > maxCaptureFPS {
		return maxCaptureFPS
	}
	return reported
}

func captureRate(reported float64) rate.Limit {
	return rate.Limit(captureFPS(reported))
}

func captureInterval(reported float64) time.Duration {
	return time.Duration(float64(time.Second) / captureFPS(reported))
}
