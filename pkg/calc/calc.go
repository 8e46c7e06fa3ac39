// Package calc provides transfer-progress math.
package calc

import (
	"math"
	"time"
)

// Percent returns the completion percentage for a transfer, or nil when the
// total is unknown so callers never divide by zero.
func Percent(downloaded, total int) *float64 {
	if total <= 0 {
		return nil
	}

	pct := math.Min(float64(downloaded)/float64(total)*100, 100)

	return &pct
}

// Speed returns the average transfer rate in bytes per second since started,
// or nil when no time has elapsed yet.
func Speed(downloaded int, started time.Time) *float64 {
	elapsed := time.Since(started).Seconds()
	if elapsed <= 0 || downloaded <= 0 {
		return nil
	}

	speed := float64(downloaded) / elapsed

	return &speed
}

// ETASeconds estimates the remaining transfer time in whole seconds, or nil
// when the total or the rate is unknown.
func ETASeconds(downloaded, total int, started time.Time) *int {
	if total <= 0 || downloaded <= 0 {
		return nil
	}

	elapsed := time.Since(started)
	remaining := time.Duration(float64(elapsed) * (float64(total)/float64(downloaded) - 1))
	eta := int(math.Round(remaining.Seconds()))

	return &eta
}
