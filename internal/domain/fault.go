package domain

import (
	"errors"
	"fmt"
)

// FaultKind partitions failures by the subsystem they originate from.
// The set is closed; decision points must match exhaustively.
type FaultKind string

const (
	FaultCapture      FaultKind = "capture"
	FaultNetwork      FaultKind = "network"
	FaultProcessing   FaultKind = "processing"
	FaultStorage      FaultKind = "storage"
	FaultSubscription FaultKind = "subscription"
	FaultPermission   FaultKind = "permission"
)

// Fault wraps a low-level cause with a user-presentable message and a
// recoverable flag. The message is what clients may show; the cause stays
// in logs only.
type Fault struct {
	Kind        FaultKind
	Message     string
	Recoverable bool
	Cause       error
}

func (f *Fault) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Fault) Unwrap() error { return f.Cause }

func NewFault(kind FaultKind, msg string, recoverable bool, cause error) *Fault {
	return &Fault{Kind: kind, Message: msg, Recoverable: recoverable, Cause: cause}
}

// Recoverable reports whether re-attempting the failed operation has a
// reasonable chance of succeeding. Faults carry the flag explicitly;
// sentinels fall back to a fixed classification.
func Recoverable(err error) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Recoverable
	}
	switch {
	case errors.Is(err, ErrRateLimited):
		return true
	case errors.Is(err, ErrProviderDown):
		return true
	default:
		return false
	}
}

// KindOf extracts the fault kind, defaulting to processing for plain errors.
func KindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return FaultProcessing
}

// UserMessage returns the presentable message for err, or a generic one.
func UserMessage(err error) string {
	var f *Fault
	if errors.As(err, &f) && f.Message != "" {
		return f.Message
	}
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		return "You have used all your scans for this period."
	case errors.Is(err, ErrFeatureDenied):
		return "This feature is not included in your current plan."
	case errors.Is(err, ErrNoFoodDetected):
		return "We couldn't find any food in this photo. Try a clearer shot."
	case errors.Is(err, ErrInvalidImage):
		return "This image could not be processed."
	case errors.Is(err, ErrRateLimited):
		return "Too many requests. Please wait a moment."
	case errors.Is(err, ErrNotFound):
		return "Not found."
	default:
		return "Something went wrong. Please try again."
	}
}
