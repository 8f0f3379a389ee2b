// File: internal/infra/adapters/ai/rekognition_vision.go
package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"foodlens/internal/domain"
	"foodlens/internal/domain/model"
	"foodlens/internal/domain/ports/adapter"
	"foodlens/internal/infra/metrics"
)

var _ adapter.VisionAdapter = (*RekognitionVisionAdapter)(nil)

const (
	rekognitionMaxLabels = 50
	// Rekognition caps image bytes at 5MB; larger uploads must be resized
	// client-side or routed to another provider.
	rekognitionMaxImage = 5 * 1024 * 1024
)

const (
	errCodeThrottling       = "ThrottlingException"
	errCodeUnavailable      = "ServiceUnavailableException"
	errCodeInvalidImage     = "InvalidImageFormatException"
	errCodeImageTooLarge    = "ImageTooLargeException"
	errCodeAccessDenied     = "AccessDeniedException"
	errCodeProvisionedLimit = "ProvisionedThroughputExceededException"
)

// foodParents are the Rekognition label ancestors that mark a label as food.
var foodParents = map[string]struct{}{
	"Food":      {},
	"Produce":   {},
	"Fruit":     {},
	"Vegetable": {},
	"Meat":      {},
	"Seafood":   {},
	"Plant":     {},
}

// RekognitionVisionAdapter detects ingredients with AWS Rekognition label
// detection, filtered down to the food taxonomy.
type RekognitionVisionAdapter struct {
	client        *rekognition.Client
	minConfidence float64
}

func NewRekognitionVisionAdapter(ctx context.Context, region string, minConfidence float64) (*RekognitionVisionAdapter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &RekognitionVisionAdapter{
		client:        rekognition.NewFromConfig(awsCfg),
		minConfidence: minConfidence,
	}, nil
}

func (r *RekognitionVisionAdapter) Provider() string { return "rekognition" }

func (r *RekognitionVisionAdapter) DetectIngredients(ctx context.Context, image []byte, mime string) (*adapter.VisionResult, error) {
	start := time.Now()

	if len(image) > rekognitionMaxImage {
		return nil, domain.NewFault(domain.FaultCapture, "image too large for this provider", false, domain.ErrInvalidImage)
	}

	input := &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(rekognitionMaxLabels),
		MinConfidence: aws.Float32(float32(r.minConfidence * 100)),
	}
	out, err := r.client.DetectLabels(ctx, input)
	if err != nil {
		metrics.ObserveVision("rekognition", time.Since(start), false)
		return nil, mapRekognitionError(err)
	}

	items := make([]model.DetectedIngredient, 0, len(out.Labels))
	for _, label := range out.Labels {
		if label.Name == nil || label.Confidence == nil {
			continue
		}
		if !isFoodLabel(label) {
			continue
		}
		items = append(items, model.DetectedIngredient{
			Name:       strings.ToLower(*label.Name),
			Confidence: float64(*label.Confidence) / 100,
		})
	}

	elapsed := time.Since(start)
	metrics.ObserveVision("rekognition", elapsed, true)
	return &adapter.VisionResult{Ingredients: items, Provider: r.Provider(), Elapsed: elapsed}, nil
}

func isFoodLabel(label types.Label) bool {
	if label.Name != nil {
		if _, ok := foodParents[*label.Name]; ok {
			return false // category labels themselves are too generic
		}
	}
	for _, p := range label.Parents {
		if p.Name == nil {
			continue
		}
		if _, ok := foodParents[*p.Name]; ok {
			return true
		}
	}
	return false
}

func mapRekognitionError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case errCodeThrottling, errCodeProvisionedLimit:
			return domain.NewFault(domain.FaultNetwork, "vision provider is rate limiting", true,
				errors.Join(domain.ErrRateLimited, err))
		case errCodeUnavailable:
			return domain.NewFault(domain.FaultNetwork, "vision provider unavailable", true,
				errors.Join(domain.ErrProviderDown, err))
		case errCodeInvalidImage, errCodeImageTooLarge:
			return domain.NewFault(domain.FaultCapture, "this image could not be processed", false,
				errors.Join(domain.ErrInvalidImage, err))
		case errCodeAccessDenied:
			return domain.NewFault(domain.FaultPermission, "vision provider rejected our credentials", false, err)
		}
	}
	return domain.NewFault(domain.FaultNetwork, "vision service unreachable", true, err)
}
