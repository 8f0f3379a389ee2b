// File: internal/infra/adapters/ai/breaker_wrapper.go
package ai

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"foodlens/internal/config"
	"foodlens/internal/domain"
	"foodlens/internal/domain/ports/adapter"
	"foodlens/internal/infra/metrics"
)

var _ adapter.VisionAdapter = (*breakerVision)(nil)

// breakerVision trips after repeated provider failures so a dead provider
// sheds load fast instead of eating the full retry budget per request.
type breakerVision struct {
	inner adapter.VisionAdapter
	cb    *gobreaker.CircuitBreaker[*adapter.VisionResult]
}

func NewBreakerVision(inner adapter.VisionAdapter, cfg config.BreakerConfig, log *zerolog.Logger) adapter.VisionAdapter {
	settings := gobreaker.Settings{
		Name:        inner.Provider(),
		MaxRequests: cfg.MaxHalfOpen,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("vision breaker state changed")
			if to == gobreaker.StateOpen {
				metrics.BreakerOpened(name)
			}
		},
		IsSuccessful: func(err error) bool {
			// Terminal faults (bad image, no food) say nothing about provider
			// health and must not trip the breaker.
			return err == nil || !domain.Recoverable(err)
		},
	}
	return &breakerVision{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[*adapter.VisionResult](settings),
	}
}

func (b *breakerVision) Provider() string { return b.inner.Provider() }

func (b *breakerVision) DetectIngredients(ctx context.Context, image []byte, mime string) (*adapter.VisionResult, error) {
	res, err := b.cb.Execute(func() (*adapter.VisionResult, error) {
		return b.inner.DetectIngredients(ctx, image, mime)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			// Open circuit: fail fast, recoverable so the multi adapter can
			// fall over to another provider.
			return nil, domain.NewFault(domain.FaultNetwork, "vision provider unavailable", true,
				errors.Join(domain.ErrProviderDown, err))
		}
		return nil, err
	}
	return res, nil
}
