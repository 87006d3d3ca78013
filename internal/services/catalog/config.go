// File: internal/services/catalog/config.go
package catalog

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// Cache lifetimes per endpoint
	TermsTTL    time.Duration
	SubjectsTTL time.Duration
	CoursesTTL  time.Duration

	MaxRetries int
	RetryDelay time.Duration

	// RefreshSubjects are reloaded by a course data refresh that names none.
	RefreshSubjects []string
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL (got %q)", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://nubanner.neu.edu/StudentRegistrationSsb/ssb",
		Timeout:     30 * time.Second,
		UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		TermsTTL:    2 * time.Hour,
		SubjectsTTL: time.Hour,
		CoursesTTL:  time.Hour,
		MaxRetries:  2,
		RetryDelay:  300 * time.Millisecond,

		RefreshSubjects: []string{"CS", "DS", "MATH", "PHYS", "CHEM", "BIOL", "EECE", "PHIL", "ENGW", "CY", "IS"},
	}
}
