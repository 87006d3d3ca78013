package plan

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
	"github.com/jacklvd/NEU-scheduler/internal/metrics"
	"github.com/jacklvd/NEU-scheduler/internal/services/ai"
)

type Config struct {
	Subjects    []string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		Subjects:    []string{"CS", "DS", "IS", "MATH", "PHYS", "EECE", "PHIL", "ENGW", "ECON", "STAT"},
		Temperature: 0.3,
		MaxTokens:   1500,
		Timeout:     30 * time.Second,
	}
}

// Service suggests semester plans. Upstream failures degrade to the local
// sequencer and never fail a suggestion.
type Service struct {
	source CandidateSource
	model  Model
	config Config
	logger Logger
}

func NewService(source CandidateSource, model Model, cfg Config, logger Logger) *Service {
	return &Service{source: source, model: model, config: cfg, logger: logger}
}

// Validate checks the request before any upstream call.
func Validate(interest string, years int) (string, error) {
	interest = strings.TrimSpace(interest)
	if interest == "" {
		return "", ErrInterestRequired
	}
	if utf8.RuneCountInString(interest) > maxInterestLength {
		return "", ErrInterestTooLong
	}
	if years < minYears || years > maxYears {
		return "", ErrYearsOutOfRange
	}
	return interest, nil
}

// SuggestPlan returns exactly years*2 semesters alternating Fall and Spring.
func (s *Service) SuggestPlan(ctx context.Context, interest string, years int) ([]domain.SemesterPlan, error) {
	interest, err := Validate(interest, years)
	if err != nil {
		return nil, err
	}
	semesters := years * 2

	candidates := s.candidates(ctx)
	selected := s.rank(ctx, interest, candidates, selectionSize(years))

	state := newPlanState(interest)
	plan, source := s.sequence(ctx, interest, years, selected, state)

	if len(plan) > semesters {
		plan = plan[:semesters]
	}
	if missing := semesters - len(plan); missing > 0 {
		plan = append(plan, fallbackSequence(selected, missing, state)...)
	}
	for i := range plan {
		plan[i].Year = i/2 + 1
		if i%2 == 0 {
			plan[i].Term = "Fall"
		} else {
			plan[i].Term = "Spring"
		}
	}

	metrics.PlanSuggestionsTotal.WithLabelValues(source).Inc()
	s.logger.Info("plan suggested", "years", years, "candidates", len(candidates), "selected", len(selected), "source", source)
	return plan, nil
}

func (s *Service) candidates(ctx context.Context) []domain.CourseCandidate {
	if s.source == nil {
		return builtinCandidates()
	}
	out, err := s.source.CourseCandidates(ctx, s.config.Subjects)
	if err != nil || len(out) == 0 {
		s.logger.Warn("catalog candidates unavailable, using built-in courses", "error", err)
		return builtinCandidates()
	}
	return out
}

// sequence asks the model for an ordering and falls back to the local
// sequencer when there is no model or its answer is unusable.
func (s *Service) sequence(ctx context.Context, interest string, years int, selected []domain.CourseCandidate, state *planState) ([]domain.SemesterPlan, string) {
	if s.model != nil && len(selected) > 0 {
		plan, err := s.sequenceWithModel(ctx, interest, years, selected, state)
		if err == nil {
			return plan, "llm"
		}
		s.logger.Warn("model sequencing failed, using local sequencer", "error", err)
	}
	return fallbackSequence(selected, years*2, state), "fallback"
}

func (s *Service) sequenceWithModel(ctx context.Context, interest string, years int, selected []domain.CourseCandidate, state *planState) ([]domain.SemesterPlan, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	reply, err := s.model.Complete(ctx, ai.CompletionRequest{
		Model:       s.config.Model,
		Prompt:      buildPrompt(selected, years, interest),
		Temperature: s.config.Temperature,
		MaxTokens:   s.config.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	raw, err := parseSemesters(reply)
	if err != nil {
		return nil, err
	}

	known := make(map[string]domain.CourseCandidate, len(selected))
	for _, c := range selected {
		known[c.Code()] = c
	}
	return cleanPlan(raw, known, state), nil
}
