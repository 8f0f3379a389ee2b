package model

import (
	"time"

	"foodlens/internal/domain"
)

type ScanStatus string

const (
	ScanStatusPending   ScanStatus = "pending"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

// DetectedIngredient is one item a vision provider found in a photo.
type DetectedIngredient struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"` // 0.0–1.0
}

// ScanResult is the stored outcome of one food-photo scan.
type ScanResult struct {
	ID           string               `json:"id"` // UUID
	UserID       string               `json:"user_id"`
	Status       ScanStatus           `json:"status"`
	Ingredients  []DetectedIngredient `json:"ingredients,omitempty"`
	Provider     string               `json:"provider,omitempty"`
	ProcessingMs int64                `json:"processing_ms"`
	FailureNote  string               `json:"failure_note,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

func NewScanResult(id, userID string) (*ScanResult, error) {
	if id == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &ScanResult{
		ID:        id,
		UserID:    userID,
		Status:    ScanStatusPending,
		CreatedAt: time.Now(),
	}, nil
}

// Complete records a successful detection.
func (s *ScanResult) Complete(items []DetectedIngredient, provider string, elapsed time.Duration) {
	s.Status = ScanStatusCompleted
	s.Ingredients = items
	s.Provider = provider
	s.ProcessingMs = elapsed.Milliseconds()
}

// Fail records a terminal failure with its user-facing note.
func (s *ScanResult) Fail(note string, elapsed time.Duration) {
	s.Status = ScanStatusFailed
	s.FailureNote = note
	s.ProcessingMs = elapsed.Milliseconds()
}

// IngredientNames flattens detected items for the recipe generator.
func (s *ScanResult) IngredientNames() []string {
	out := make([]string, 0, len(s.Ingredients))
	for _, it := range s.Ingredients {
		out = append(out, it.Name)
	}
	return out
}
