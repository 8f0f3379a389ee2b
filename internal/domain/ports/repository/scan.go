package repository

import (
	"context"

	"foodlens/internal/domain/model"
)

// ScanRepository is the port for scan history.
type ScanRepository interface {
	Save(ctx context.Context, tx Tx, scan *model.ScanResult) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.ScanResult, error)
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.ScanResult, error)
}
