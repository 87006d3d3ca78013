// File: internal/services/catalog_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jacklvd/NEU-scheduler/internal/config"
	"github.com/jacklvd/NEU-scheduler/internal/domain"
	"github.com/jacklvd/NEU-scheduler/internal/metrics"
	"github.com/jacklvd/NEU-scheduler/internal/services/catalog"
)

var (
	// ErrCatalogUnavailable is what callers outside the service see for any upstream failure.
	ErrCatalogUnavailable = errors.New("course catalog is temporarily unavailable")
	ErrInvalidCourseCode  = errors.New("course code must look like CS2500")
	ErrCacheUnavailable   = errors.New("course cache is temporarily unavailable")
)

var courseCodePattern = regexp.MustCompile(`^([A-Za-z]{2,5})\s*-?\s*(\d{4}[A-Za-z]?)$`)

const (
	candidateConcurrency = 4
	candidatePageSize    = 100
	courseInfoPageSize   = 50
)

// CatalogService fronts the Banner client with a response cache and retries.
type CatalogService struct {
	client catalog.Client
	cache  catalog.Cache
	config *catalog.Config
	logger Logger

	mu          sync.Mutex
	lastRefresh *domain.CourseRefresh
	refreshedAt time.Time
}

func CatalogConfigFromApp(cfg *config.Config) *catalog.Config {
	cc := catalog.DefaultConfig()
	cc.BaseURL = cfg.CatalogBaseURL
	cc.Timeout = cfg.CatalogTimeout
	if len(cfg.PlanSubjects) > 0 {
		cc.RefreshSubjects = cfg.PlanSubjects
	}
	return cc
}

func NewCatalogService(client catalog.Client, cache catalog.Cache, cfg *catalog.Config, logger Logger) *CatalogService {
	return &CatalogService{client: client, cache: cache, config: cfg, logger: logger}
}

func (s *CatalogService) retryConfig() *catalog.RetryConfig {
	return &catalog.RetryConfig{MaxAttempts: s.config.MaxRetries, Delay: s.config.RetryDelay}
}

// cached returns the cached value for key or runs fetch and stores its result.
// Cache failures are logged and otherwise ignored.
func (s *CatalogService) cached(ctx context.Context, key string, ttl time.Duration, dest interface{}, fetch func(ctx context.Context) error) error {
	if s.cache != nil {
		hit, err := s.cache.Get(ctx, key, dest)
		if err != nil {
			s.logger.Warn("catalog cache read failed", "key", key, "error", err)
		}
		if hit {
			metrics.CacheLookupsTotal.WithLabelValues(s.cache.Name(), "hit").Inc()
			return nil
		}
		metrics.CacheLookupsTotal.WithLabelValues(s.cache.Name(), "miss").Inc()
	}

	if err := catalog.RetryWithBackoff(ctx, s.retryConfig(), fetch); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, dest, ttl); err != nil {
			s.logger.Warn("catalog cache write failed", "key", key, "error", err)
		}
	}
	return nil
}

func (s *CatalogService) GetTerms(ctx context.Context, maxResults int) ([]domain.Term, error) {
	if maxResults <= 0 {
		maxResults = 50
	}
	key := fmt.Sprintf("terms:%d:%d:%s", 1, maxResults, "")
	var terms []domain.Term
	err := s.cached(ctx, key, s.config.TermsTTL, &terms, func(ctx context.Context) error {
		start := time.Now()
		out, err := s.client.GetTerms(ctx, 1, maxResults, "")
		metrics.ObserveUpstream("catalog", "terms", start, err)
		if err != nil {
			return err
		}
		terms = out
		return nil
	})
	if err != nil {
		s.logger.Error("fetching terms failed", "error", err)
		return nil, ErrCatalogUnavailable
	}
	return terms, nil
}

func (s *CatalogService) GetSubjects(ctx context.Context, term, searchTerm string) ([]domain.Subject, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.New("term is required")
	}
	key := fmt.Sprintf("subjects:%s:%d:%d:%s", term, 1, 500, searchTerm)
	var subjects []domain.Subject
	err := s.cached(ctx, key, s.config.SubjectsTTL, &subjects, func(ctx context.Context) error {
		start := time.Now()
		out, err := s.client.GetSubjects(ctx, term, 1, 500, searchTerm)
		metrics.ObserveUpstream("catalog", "subjects", start, err)
		if err != nil {
			return err
		}
		subjects = out
		return nil
	})
	if err != nil {
		s.logger.Error("fetching subjects failed", "term", term, "error", err)
		return nil, ErrCatalogUnavailable
	}
	return subjects, nil
}

// SearchCourses returns matching sections. An unsuccessful search is an empty
// list and is not cached.
func (s *CatalogService) SearchCourses(ctx context.Context, q catalog.SearchQuery) ([]domain.Class, error) {
	return s.search(ctx, q, true)
}

// search skips the cache read when readCache is false but still stores the
// fresh result.
func (s *CatalogService) search(ctx context.Context, q catalog.SearchQuery, readCache bool) ([]domain.Class, error) {
	q.Term = strings.TrimSpace(q.Term)
	if q.Term == "" {
		return nil, errors.New("term is required")
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.PageSize > 500 {
		q.PageSize = 500
	}
	q.Subject = strings.ToUpper(strings.TrimSpace(q.Subject))
	q.CourseNumber = strings.TrimSpace(q.CourseNumber)

	key := fmt.Sprintf("courses:%s:%s:%s:%d:%d", q.Term, q.Subject, q.CourseNumber, q.PageOffset, q.PageSize)
	var classes []domain.Class

	if s.cache != nil && readCache {
		hit, err := s.cache.Get(ctx, key, &classes)
		if err != nil {
			s.logger.Warn("catalog cache read failed", "key", key, "error", err)
		}
		if hit {
			metrics.CacheLookupsTotal.WithLabelValues(s.cache.Name(), "hit").Inc()
			return classes, nil
		}
		metrics.CacheLookupsTotal.WithLabelValues(s.cache.Name(), "miss").Inc()
	}

	var result *catalog.SearchResult
	err := catalog.RetryWithBackoff(ctx, s.retryConfig(), func(ctx context.Context) error {
		start := time.Now()
		out, err := s.client.SearchSections(ctx, q)
		metrics.ObserveUpstream("catalog", "search", start, err)
		if err != nil {
			return err
		}
		result = out
		return nil
	})
	if err != nil {
		s.logger.Error("course search failed", "term", q.Term, "subject", q.Subject, "error", err)
		return nil, ErrCatalogUnavailable
	}
	if !result.Success {
		s.logger.Info("course search returned no data", "term", q.Term, "subject", q.Subject)
		return []domain.Class{}, nil
	}

	classes = result.Classes
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, classes, s.config.CoursesTTL); err != nil {
			s.logger.Warn("catalog cache write failed", "key", key, "error", err)
		}
	}
	return classes, nil
}

// Status probes the catalog with a one-term request, bypassing the cache.
func (s *CatalogService) Status(ctx context.Context) string {
	start := time.Now()
	terms, err := s.client.GetTerms(ctx, 1, 1, "")
	metrics.ObserveUpstream("catalog", "status", start, err)
	if err != nil {
		s.logger.Error("catalog status probe failed", "error", err)
		return "API issues - NU Banner unavailable"
	}
	if len(terms) == 0 {
		return "API operational - NU Banner returns no data"
	}
	return fmt.Sprintf("API operational - NU Banner accessible (%d terms)", len(terms))
}

// CourseCandidates collects distinct courses offered in the newest term for the
// given subjects. Subjects that fail are skipped; an error is returned only
// when nothing could be fetched.
func (s *CatalogService) CourseCandidates(ctx context.Context, subjects []string) ([]domain.CourseCandidate, error) {
	term, out, failed, err := s.collectCandidates(ctx, subjects, false)
	if err != nil {
		return nil, err
	}
	s.logger.Info("collected course candidates", "term", term, "subjects", len(subjects), "courses", len(out), "failed_subjects", len(failed))
	return out, nil
}

func (s *CatalogService) newestTerm(ctx context.Context) (string, error) {
	terms, err := s.GetTerms(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(terms) == 0 {
		return "", ErrCatalogUnavailable
	}
	return terms[0].ID, nil
}

func (s *CatalogService) collectCandidates(ctx context.Context, subjects []string, fresh bool) (string, []domain.CourseCandidate, []string, error) {
	term, err := s.newestTerm(ctx)
	if err != nil {
		return "", nil, nil, err
	}

	var (
		mu     sync.Mutex
		seen   = make(map[string]domain.CourseCandidate)
		failed []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(candidateConcurrency)
	for _, subject := range subjects {
		subject := subject
		g.Go(func() error {
			classes, err := s.search(gctx, catalog.SearchQuery{Term: term, Subject: subject, PageSize: candidatePageSize}, !fresh)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, subject)
				return nil
			}
			for _, c := range classes {
				cand := candidateFromClass(c)
				if _, ok := seen[cand.Code()]; !ok && cand.Subject != "" && cand.CourseNumber != "" {
					seen[cand.Code()] = cand
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) == len(subjects) && len(subjects) > 0 {
		return term, nil, failed, ErrCatalogUnavailable
	}

	out := make([]domain.CourseCandidate, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code() < out[j].Code() })
	sort.Strings(failed)
	return term, out, failed, nil
}

func candidateFromClass(c domain.Class) domain.CourseCandidate {
	return domain.CourseCandidate{
		Subject:      c.Subject,
		CourseNumber: c.CourseNumber,
		Title:        c.Title,
		Credits:      c.Credits,
	}
}

// CourseInfo looks up one course by code, e.g. "CS2500" or "cs 2500". An
// empty term selects the newest one. A course with no sections is nil.
func (s *CatalogService) CourseInfo(ctx context.Context, courseCode, term string) (*domain.CourseInfo, error) {
	m := courseCodePattern.FindStringSubmatch(strings.TrimSpace(courseCode))
	if m == nil {
		return nil, ErrInvalidCourseCode
	}
	subject, number := strings.ToUpper(m[1]), strings.ToUpper(m[2])

	term = strings.TrimSpace(term)
	if term == "" {
		var err error
		if term, err = s.newestTerm(ctx); err != nil {
			return nil, err
		}
	}

	classes, err := s.SearchCourses(ctx, catalog.SearchQuery{Term: term, Subject: subject, CourseNumber: number, PageSize: courseInfoPageSize})
	if err != nil {
		return nil, err
	}
	var sections []domain.Class
	for _, c := range classes {
		if strings.EqualFold(c.Subject, subject) && strings.EqualFold(c.CourseNumber, number) {
			sections = append(sections, c)
		}
	}
	if len(sections) == 0 {
		return nil, nil
	}

	info := &domain.CourseInfo{Course: candidateFromClass(sections[0]), Term: term, Sections: sections}
	for _, c := range sections {
		if c.Credits > info.Course.Credits {
			info.Course.Credits = c.Credits
		}
	}
	return info, nil
}

// RefreshCourseData reloads course candidates from the catalog, overwriting
// cached searches. No subjects means the configured refresh list.
func (s *CatalogService) RefreshCourseData(ctx context.Context, subjects []string) (*domain.CourseRefresh, error) {
	subjects = normalizeSubjects(subjects)
	if len(subjects) == 0 {
		subjects = normalizeSubjects(s.config.RefreshSubjects)
	}

	term, courses, failed, err := s.collectCandidates(ctx, subjects, true)
	if err != nil {
		s.logger.Error("course data refresh failed", "term", term, "subjects", len(subjects), "error", err)
		return nil, err
	}

	out := &domain.CourseRefresh{Term: term, Subjects: len(subjects), Courses: len(courses), FailedSubjects: failed}
	s.mu.Lock()
	s.lastRefresh = out
	s.refreshedAt = time.Now().UTC()
	s.mu.Unlock()

	s.logger.Info("course data refreshed", "term", term, "subjects", len(subjects), "courses", len(courses), "failed_subjects", len(failed))
	return out, nil
}

func normalizeSubjects(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// ResetCache drops every cached catalog response and the last refresh record.
func (s *CatalogService) ResetCache(ctx context.Context) (int, error) {
	s.mu.Lock()
	s.lastRefresh = nil
	s.refreshedAt = time.Time{}
	s.mu.Unlock()

	if s.cache == nil {
		return 0, nil
	}
	n, err := s.cache.Flush(ctx)
	if err != nil {
		s.logger.Error("catalog cache flush failed", "backend", s.cache.Name(), "error", err)
		return n, ErrCacheUnavailable
	}
	s.logger.Info("catalog cache flushed", "backend", s.cache.Name(), "entries", n)
	return n, nil
}

// DataStatus reports cached course searches and the last refresh.
func (s *CatalogService) DataStatus(ctx context.Context) domain.CourseDataStatus {
	status := domain.CourseDataStatus{Backend: "none", CacheHealth: "disabled"}

	s.mu.Lock()
	if s.lastRefresh != nil {
		status.TotalCourses = s.lastRefresh.Courses
		at := s.refreshedAt
		status.LastUpdated = &at
	}
	s.mu.Unlock()

	if s.cache == nil {
		return status
	}
	status.Backend = s.cache.Name()
	n, err := s.cache.Count(ctx, "courses:")
	switch {
	case err != nil:
		s.logger.Warn("catalog cache count failed", "backend", s.cache.Name(), "error", err)
		status.CacheHealth = "error"
	case n == 0:
		status.CacheHealth = "no_cache"
	default:
		status.SubjectsCached = n
		status.CacheHealth = "operational"
	}
	return status
}
