package strava

import (
	"sync"
	"time"

	"strava-workout-sync/internal/metrics"
)

// RateLimiter tracks Strava API rate limits
type RateLimiter struct {
	mu             sync.RWMutex
	limit15Min     int
	usage15Min     int
	limitDaily     int
	usageDaily     int
	readLimit15Min int
	readUsage15Min int
	readLimitDaily int
	readUsageDaily int
	lastUpdated    time.Time
}

// RateLimitStatus represents the current rate limit status
type RateLimitStatus struct {
	Limit15Min     int
	Usage15Min     int
	LimitDaily     int
	UsageDaily     int
	ReadLimit15Min int
	ReadUsage15Min int
	ReadLimitDaily int
	ReadUsageDaily int
	Usage15MinPct  float64
	UsageDailyPct  float64
	LastUpdated    time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		// Default Strava limits
		limit15Min:     200,
		limitDaily:     2000,
		readLimit15Min: 100,
		readLimitDaily: 1000,
	}
}

// Update updates the overall rate limit information
func (rl *RateLimiter) Update(limit15Min, usage15Min, limitDaily, usageDaily int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.limit15Min = limit15Min
	rl.usage15Min = usage15Min
	rl.limitDaily = limitDaily
	rl.usageDaily = usageDaily
	rl.lastUpdated = time.Now()

	metrics.StravaRateLimitUsage.WithLabelValues(metrics.RateLimitOverall15Min, metrics.BucketLimit).Set(float64(limit15Min))
	metrics.StravaRateLimitUsage.WithLabelValues(metrics.RateLimitOverall15Min, metrics.BucketUsage).Set(float64(usage15Min))
	metrics.StravaRateLimitUsage.WithLabelValues(metrics.RateLimitOverallDaily, metrics.BucketLimit).Set(float64(limitDaily))
	metrics.StravaRateLimitUsage.WithLabelValues(metrics.RateLimitOverallDaily, metrics.BucketUsage).Set(float64(usageDaily))
}

// UpdateRead updates the read-only rate limit information
func (rl *RateLimiter) UpdateRead(limit15Min, usage15Min, limitDaily, usageDaily int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.readLimit15Min = limit15Min
	rl.readUsage15Min = usage15Min
	rl.readLimitDaily = limitDaily
	rl.readUsageDaily = usageDaily
	rl.lastUpdated = time.Now()

	metrics.StravaRateLimitUsage.WithLabelValues(metrics.RateLimitRead15Min, metrics.BucketLimit).Set(float64(limit15Min))
	metrics.StravaRateLimitUsage.WithLabelValues(metrics.RateLimitRead15Min, metrics.BucketUsage).Set(float64(usage15Min))
	metrics.StravaRateLimitUsage.WithLabelValues(metrics.RateLimitReadDaily, metrics.BucketLimit).Set(float64(limitDaily))
	metrics.StravaRateLimitUsage.WithLabelValues(metrics.RateLimitReadDaily, metrics.BucketUsage).Set(float64(usageDaily))
}

// Status returns the current rate limit status
func (rl *RateLimiter) Status() RateLimitStatus {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	usage15MinPct := 0.0
	if rl.limit15Min > 0 {
		usage15MinPct = float64(rl.usage15Min) / float64(rl.limit15Min) * 100
	}

	usageDailyPct := 0.0
	if rl.limitDaily > 0 {
		usageDailyPct = float64(rl.usageDaily) / float64(rl.limitDaily) * 100
	}

	return RateLimitStatus{
		Limit15Min:     rl.limit15Min,
		Usage15Min:     rl.usage15Min,
		LimitDaily:     rl.limitDaily,
		UsageDaily:     rl.usageDaily,
		ReadLimit15Min: rl.readLimit15Min,
		ReadUsage15Min: rl.readUsage15Min,
		ReadLimitDaily: rl.readLimitDaily,
		ReadUsageDaily: rl.readUsageDaily,
		Usage15MinPct:  usage15MinPct,
		UsageDailyPct:  usageDailyPct,
		LastUpdated:    rl.lastUpdated,
	}
}

// IsNearLimit returns true if we're approaching rate limits
func (rl *RateLimiter) IsNearLimit(threshold float64) bool {
	status := rl.Status()
	return status.Usage15MinPct >= threshold || status.UsageDailyPct >= threshold
}
