package plan

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
)

type category int

const (
	categoryGeneral category = iota
	categoryBusiness
	categoryData
)

var technicalSubjects = map[string]bool{"CS": true, "DS": true, "MATH": true, "STAT": true, "IS": true, "EECE": true}

var foundationSubjects = map[string]bool{"MATH": true, "ENGW": true, "PHIL": true}

func hasWord(text, word string) bool {
	for _, w := range strings.Fields(text) {
		if w == word {
			return true
		}
	}
	return false
}

func interestCategory(interest string) category {
	lower := strings.ToLower(interest)
	switch {
	case strings.Contains(lower, "business"):
		return categoryBusiness
	case strings.Contains(lower, "data"), strings.Contains(lower, "intelligence"):
		return categoryData
	}
	return categoryGeneral
}

// expandInterest returns related topics used for keyword matching.
func expandInterest(interest string) []string {
	lower := strings.ToLower(interest)
	switch {
	case strings.Contains(lower, "business") && strings.Contains(lower, "intelligence"):
		return []string{"data analytics", "business analysis", "statistics", "databases", "reporting", "decision making", "management"}
	case strings.Contains(lower, "business"):
		return []string{"management", "economics", "finance", "accounting", "marketing", "statistics"}
	case strings.Contains(lower, "data"):
		return []string{"statistics", "programming", "databases", "analytics", "visualization", "machine learning"}
	case strings.Contains(lower, "intelligence"), hasWord(lower, "ai"):
		return []string{"machine learning", "programming", "algorithms", "statistics", "mathematics"}
	}
	return []string{"mathematics", "statistics", "programming", "writing"}
}

func interestKeywords(interest string) []string {
	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(interest)) {
		if len(w) > 2 {
			keywords = append(keywords, w)
		}
	}
	return append(keywords, expandInterest(interest)...)
}

func keywordScore(c domain.CourseCandidate, keywords []string) float64 {
	title := strings.ToLower(c.Title)
	for _, k := range keywords {
		if strings.Contains(title, k) {
			return 0.8
		}
	}
	subject := strings.ToUpper(c.Subject)
	if technicalSubjects[subject] {
		return 0.5
	}
	if foundationSubjects[subject] {
		return 0.3
	}
	return 0.25
}

func selectionSize(years int) int {
	n := years * 4
	if n < 6 {
		n = 6
	}
	return n + 4
}

// rank scores every candidate against the interest and returns the best ones,
// highest score first.
func (s *Service) rank(ctx context.Context, interest string, candidates []domain.CourseCandidate, limit int) []domain.CourseCandidate {
	scored := make([]domain.CourseCandidate, len(candidates))
	copy(scored, candidates)

	if !s.scoreByEmbedding(ctx, interest, scored) {
		keywords := interestKeywords(interest)
		for i := range scored {
			scored[i].Score = keywordScore(scored[i], keywords)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Code() < scored[j].Code()
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func (s *Service) scoreByEmbedding(ctx context.Context, interest string, candidates []domain.CourseCandidate) bool {
	if s.model == nil || len(candidates) == 0 {
		return false
	}
	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, interest)
	for _, c := range candidates {
		texts = append(texts, fmt.Sprintf("%s %s %s", c.Subject, c.CourseNumber, c.Title))
	}

	vectors, err := s.model.Embed(ctx, texts)
	if err != nil {
		s.logger.Warn("embedding ranking failed, using keyword relevance", "error", err)
		return false
	}
	if len(vectors) != len(texts) {
		s.logger.Warn("embedding count mismatch, using keyword relevance", "want", len(texts), "got", len(vectors))
		return false
	}
	for i := range candidates {
		candidates[i].Score = cosine(vectors[0], vectors[i+1])
	}
	return true
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
