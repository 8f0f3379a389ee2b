// File: internal/infra/adapters/ai/multi_vision.go
package ai

import (
	"context"
	"strings"

	"foodlens/internal/domain"
	"foodlens/internal/domain/ports/adapter"
)

var _ adapter.VisionAdapter = (*MultiVisionAdapter)(nil)

// MultiVisionAdapter routes detection to a named provider and falls over to
// the others when the primary fails with a recoverable error.
type MultiVisionAdapter struct {
	primary    string
	byProvider map[string]adapter.VisionAdapter
}

func NewMultiVisionAdapter(primary string, byProvider map[string]adapter.VisionAdapter) *MultiVisionAdapter {
	return &MultiVisionAdapter{
		primary:    strings.ToLower(primary),
		byProvider: byProvider,
	}
}

func (m *MultiVisionAdapter) Provider() string { return m.primary }

func (m *MultiVisionAdapter) DetectIngredients(ctx context.Context, image []byte, mime string) (*adapter.VisionResult, error) {
	var lastErr error

	if a := m.byProvider[m.primary]; a != nil {
		res, err := a.DetectIngredients(ctx, image, mime)
		if err == nil {
			return res, nil
		}
		if !domain.Recoverable(err) {
			return nil, err
		}
		lastErr = err
	}

	for name, a := range m.byProvider {
		if name == m.primary || a == nil {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		res, err := a.DetectIngredients(ctx, image, mime)
		if err == nil {
			return res, nil
		}
		if !domain.Recoverable(err) {
			return nil, err
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = domain.NewFault(domain.FaultNetwork, "no vision provider configured", false, domain.ErrProviderDown)
	}
	return nil, lastErr
}
