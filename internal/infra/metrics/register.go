// File: internal/infra/metrics/register.go
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var once sync.Once

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			scansTotal, quotaBlocks, usageConsumed, bonusGranted,
			retryAttempts, visionLatencyMs, recipeLatencyMs,
			promptTokens, breakerOpens,
		)
	})
}

// Handler exposes the default registry for the /metrics route.
func Handler() http.Handler { return promhttp.Handler() }
