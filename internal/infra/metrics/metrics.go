// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scans_total",
			Help: "Food scans by terminal status (completed/failed/blocked).",
		},
		[]string{"status"},
	)

	quotaBlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_blocks_total",
			Help: "Actions denied by the quota gate, per tier.",
		},
		[]string{"tier"},
	)

	usageConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usage_consumed_total",
			Help: "Charged actions per tier and channel (primary/bonus).",
		},
		[]string{"tier", "channel"},
	)

	bonusGranted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bonus_credits_granted_total",
			Help: "Rewarded-ad bonus credits granted.",
		},
	)

	retryAttempts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retry_attempts",
			Help:    "Attempts per retry sequence, by call-site category.",
			Buckets: []float64{1, 2, 3, 4, 5, 8},
		},
		[]string{"category", "success"},
	)

	visionLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vision_latency_ms",
			Help:    "Vision provider call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
		[]string{"provider", "success"},
	)

	recipeLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipe_latency_ms",
			Help:    "Recipe generation latency distribution in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000, 15000},
		},
		[]string{"model", "success"},
	)

	promptTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_tokens_total",
			Help: "Estimated prompt tokens sent per model.",
		},
		[]string{"model"},
	)

	breakerOpens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breaker_opens_total",
			Help: "Circuit breaker open transitions per provider.",
		},
		[]string{"provider"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// -------- Scan/quota helpers --------

func IncScan(status string)             { scansTotal.WithLabelValues(norm(status)).Inc() }
func QuotaBlocked(tier string)          { quotaBlocks.WithLabelValues(norm(tier)).Inc() }
func UsageCharged(tier, channel string) { usageConsumed.WithLabelValues(norm(tier), norm(channel)).Inc() }
func BonusGranted(n int)                { bonusGranted.Add(float64(n)) }

// -------- Retry/provider helpers --------

func ObserveRetry(category string, attempts int, success bool) {
	retryAttempts.WithLabelValues(norm(category), strconv.FormatBool(success)).Observe(float64(attempts))
}

func ObserveVision(provider string, d time.Duration, success bool) {
	visionLatencyMs.WithLabelValues(norm(provider), strconv.FormatBool(success)).Observe(float64(d.Milliseconds()))
}

func ObserveRecipe(model string, d time.Duration, success bool) {
	recipeLatencyMs.WithLabelValues(norm(model), strconv.FormatBool(success)).Observe(float64(d.Milliseconds()))
}

func AddPromptTokens(model string, n int) { promptTokens.WithLabelValues(norm(model)).Add(float64(n)) }

func BreakerOpened(provider string) { breakerOpens.WithLabelValues(norm(provider)).Inc() }
