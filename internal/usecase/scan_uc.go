// File: internal/usecase/scan_uc.go
package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"foodlens/internal/domain"
	"foodlens/internal/domain/model"
	"foodlens/internal/domain/ports/adapter"
	"foodlens/internal/domain/ports/repository"
	"foodlens/internal/infra/metrics"
	"foodlens/internal/retry"
)

const (
	minImageBytes = 100
	maxImageBytes = 8 * 1024 * 1024
)

// ScanUseCase orchestrates one food scan: quota gate, vision call under
// retry, usage charge, persisted history.
type ScanUseCase interface {
	// ScanImage runs the full flow synchronously.
	ScanImage(ctx context.Context, userID string, image []byte, mime string) (*model.ScanResult, error)

	// StartScan gates the action and persists a pending scan; CompleteScan
	// finishes it. Split so a worker can run the slow half off the request.
	StartScan(ctx context.Context, userID string, image []byte, mime string) (*model.ScanResult, error)
	CompleteScan(ctx context.Context, scan *model.ScanResult, image []byte, mime string) (*model.ScanResult, error)

	Find(ctx context.Context, userID, scanID string) (*model.ScanResult, error)
	History(ctx context.Context, userID string, limit int) ([]*model.ScanResult, error)
}

var _ ScanUseCase = (*scanUC)(nil)

type scanUC struct {
	vision    adapter.VisionAdapter
	scans     repository.ScanRepository
	subs      SubscriptionUseCase
	netPolicy retry.Policy
	log       *zerolog.Logger
}

func NewScanUseCase(
	vision adapter.VisionAdapter,
	scans repository.ScanRepository,
	subs SubscriptionUseCase,
	netPolicy retry.Policy,
	log *zerolog.Logger,
) *scanUC {
	return &scanUC{vision: vision, scans: scans, subs: subs, netPolicy: netPolicy, log: log}
}

func (uc *scanUC) ScanImage(ctx context.Context, userID string, image []byte, mime string) (*model.ScanResult, error) {
	scan, err := uc.StartScan(ctx, userID, image, mime)
	if err != nil {
		return nil, err
	}
	return uc.CompleteScan(ctx, scan, image, mime)
}

func (uc *scanUC) StartScan(ctx context.Context, userID string, image []byte, mime string) (*model.ScanResult, error) {
	if err := validateImage(image, mime); err != nil {
		return nil, err
	}
	if _, err := uc.subs.EnsureSubscription(ctx, userID); err != nil {
		return nil, err
	}
	ok, err := uc.subs.CanPerform(ctx, userID, model.ActionScan)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrQuotaExceeded
	}

	scan, err := model.NewScanResult(uuid.NewString(), userID)
	if err != nil {
		return nil, err
	}
	if err := uc.scans.Save(ctx, repository.NoTX, scan); err != nil {
		return nil, err
	}
	return scan, nil
}

func (uc *scanUC) CompleteScan(ctx context.Context, scan *model.ScanResult, image []byte, mime string) (*model.ScanResult, error) {
	start := time.Now()

	out := retry.Do(ctx, uc.netPolicy, func(ctx context.Context) (*adapter.VisionResult, error) {
		return uc.vision.DetectIngredients(ctx, image, mime)
	})
	metrics.ObserveRetry("network", out.Attempts, out.OK)

	if !out.OK {
		return uc.fail(ctx, scan, out.Err, time.Since(start))
	}
	res := out.Value
	if len(res.Ingredients) == 0 {
		return uc.fail(ctx, scan, domain.ErrNoFoodDetected, time.Since(start))
	}

	scan.Complete(res.Ingredients, res.Provider, res.Elapsed)
	if err := uc.scans.Save(ctx, repository.NoTX, scan); err != nil {
		return nil, err
	}
	metrics.IncScan("completed")

	// Charge after the action completed. Under concurrent scans the gate
	// can be passed twice; the charge itself is serialized per user.
	if _, err := uc.subs.RecordUsage(ctx, scan.UserID, model.ActionScan); err != nil {
		uc.log.Warn().Err(err).Str("scan_id", scan.ID).Msg("usage charge failed after scan")
		return scan, err
	}
	return scan, nil
}

func (uc *scanUC) fail(ctx context.Context, scan *model.ScanResult, cause error, elapsed time.Duration) (*model.ScanResult, error) {
	scan.Fail(domain.UserMessage(cause), elapsed)
	if err := uc.scans.Save(ctx, repository.NoTX, scan); err != nil {
		uc.log.Error().Err(err).Str("scan_id", scan.ID).Msg("persisting failed scan")
	}
	metrics.IncScan("failed")
	return scan, cause
}

func (uc *scanUC) Find(ctx context.Context, userID, scanID string) (*model.ScanResult, error) {
	scan, err := uc.scans.FindByID(ctx, repository.NoTX, scanID)
	if err != nil {
		return nil, err
	}
	if scan.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return scan, nil
}

func (uc *scanUC) History(ctx context.Context, userID string, limit int) ([]*model.ScanResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return uc.scans.ListByUser(ctx, repository.NoTX, userID, limit)
}

func validateImage(image []byte, mime string) error {
	if len(image) < minImageBytes || len(image) > maxImageBytes {
		return domain.NewFault(domain.FaultCapture, "image size out of bounds", false, domain.ErrInvalidImage)
	}
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/png", "image/webp":
		return nil
	default:
		return domain.NewFault(domain.FaultCapture, "unsupported image type", false, domain.ErrInvalidImage)
	}
}
