// File: internal/infra/adapters/ai/limit_wrapper.go
package ai

import (
	"context"

	"foodlens/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.VisionAdapter = (*limitedVision)(nil)

// limitedVision bounds concurrent in-flight provider calls with a semaphore.
type limitedVision struct {
	inner adapter.VisionAdapter
	sem   chan struct{}
}

func NewLimitedVision(inner adapter.VisionAdapter, maxConcurrent int) adapter.VisionAdapter {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedVision{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedVision) Provider() string { return l.inner.Provider() }

func (l *limitedVision) DetectIngredients(ctx context.Context, image []byte, mime string) (*adapter.VisionResult, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.DetectIngredients(ctx, image, mime)
}
