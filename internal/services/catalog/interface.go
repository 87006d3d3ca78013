// File: internal/services/catalog/interface.go
package catalog

import (
	"context"
	"time"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
)

// SearchQuery selects course sections in one term.
type SearchQuery struct {
	Term         string
	Subject      string
	CourseNumber string
	PageOffset   int
	PageSize     int
}

// SearchResult is a page of sections. Success mirrors the catalog's own flag.
type SearchResult struct {
	Success    bool
	TotalCount int
	Classes    []domain.Class
}

// Client talks to the upstream course catalog.
type Client interface {
	GetTerms(ctx context.Context, offset, max int, search string) ([]domain.Term, error)
	GetSubjects(ctx context.Context, term string, offset, max int, search string) ([]domain.Subject, error)
	SearchSections(ctx context.Context, q SearchQuery) (*SearchResult, error)
}

// Cache stores JSON-encodable catalog responses.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Count returns the number of live entries whose key starts with prefix.
	Count(ctx context.Context, prefix string) (int, error)
	// Flush drops every catalog entry and reports how many were removed.
	Flush(ctx context.Context) (int, error)
	Name() string
}
