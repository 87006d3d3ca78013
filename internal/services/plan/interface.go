// Package plan builds multi-year semester plans from catalog courses.
package plan

import (
	"context"
	"errors"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
	"github.com/jacklvd/NEU-scheduler/internal/services/ai"
)

var (
	ErrInterestRequired = errors.New("interest is required")
	ErrInterestTooLong  = errors.New("interest must be at most 200 characters")
	ErrYearsOutOfRange  = errors.New("years must be between 1 and 6")
	ErrNoInterestAreas  = errors.New("at least one interest area is required")
)

const (
	maxInterestLength = 200
	minYears          = 1
	maxYears          = 6

	defaultRecommendations = 10
	maxRecommendations     = 50
)

// CandidateSource lists catalog courses for a set of subject codes.
type CandidateSource interface {
	CourseCandidates(ctx context.Context, subjects []string) ([]domain.CourseCandidate, error)
}

// Model is the language model used to rank and sequence courses. A nil Model
// selects keyword ranking and the local sequencer.
type Model interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (string, error)
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
