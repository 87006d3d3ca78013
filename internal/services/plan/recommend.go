package plan

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
)

// Recommend ranks catalog courses against the interest areas and leaves out
// anything already completed. maxResults is clamped to [1, 50] with 10 as the
// default.
func (s *Service) Recommend(ctx context.Context, completed, interestAreas []string, maxResults int) ([]domain.CourseCandidate, error) {
	var areas []string
	for _, a := range interestAreas {
		if a = strings.TrimSpace(a); a != "" {
			areas = append(areas, a)
		}
	}
	if len(areas) == 0 {
		return nil, ErrNoInterestAreas
	}
	interest := strings.Join(areas, ", ")
	if utf8.RuneCountInString(interest) > maxInterestLength {
		return nil, ErrInterestTooLong
	}

	switch {
	case maxResults <= 0:
		maxResults = defaultRecommendations
	case maxResults > maxRecommendations:
		maxResults = maxRecommendations
	}

	done := make(map[string]bool, len(completed))
	for _, c := range completed {
		done[compactCode(c)] = true
	}
	candidates := s.candidates(ctx)
	open := make([]domain.CourseCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !done[c.Code()] {
			open = append(open, c)
		}
	}

	out := s.rank(ctx, interest, open, maxResults)
	s.logger.Info("courses recommended", "areas", len(areas), "completed", len(done), "candidates", len(open), "returned", len(out))
	return out, nil
}

// compactCode turns "cs 2500" or "CS-2500" into "CS2500".
func compactCode(code string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '\t' {
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(code)))
}
