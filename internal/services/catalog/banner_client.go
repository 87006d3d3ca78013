// File: internal/services/catalog/banner_client.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
)

const maxBodyBytes = 8 << 20

// BannerClient calls the NU Banner class search endpoints.
type BannerClient struct {
	config    *Config
	transport http.RoundTripper
}

func NewBannerClient(config *Config) *BannerClient {
	return &BannerClient{config: config, transport: http.DefaultTransport}
}

// httpClient returns a client with its own cookie jar. Course search is
// stateful on the Banner side, so each search runs in a fresh session.
func (c *BannerClient) httpClient() *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{Timeout: c.config.Timeout, Transport: c.transport, Jar: jar}
}

func (c *BannerClient) GetTerms(ctx context.Context, offset, max int, search string) ([]domain.Term, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("max", strconv.Itoa(max))
	if search != "" {
		q.Set("searchTerm", search)
	}

	var raw []bannerCodeDescription
	if err := c.getJSON(ctx, c.httpClient(), "terms", "/classSearch/getTerms", q, &raw); err != nil {
		return nil, err
	}
	return toTerms(raw), nil
}

func (c *BannerClient) GetSubjects(ctx context.Context, term string, offset, max int, search string) ([]domain.Subject, error) {
	if term == "" {
		return nil, &CatalogError{Type: ErrTypeValidation, Operation: "subjects", Message: "term is required"}
	}
	q := url.Values{}
	q.Set("term", term)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("max", strconv.Itoa(max))
	if search != "" {
		q.Set("searchTerm", search)
	}

	var raw []bannerCodeDescription
	if err := c.getJSON(ctx, c.httpClient(), "subjects", "/classSearch/get_subject", q, &raw); err != nil {
		return nil, err
	}
	return toSubjects(raw), nil
}

// SearchSections declares the term for a new session, then runs the search in it.
func (c *BannerClient) SearchSections(ctx context.Context, sq SearchQuery) (*SearchResult, error) {
	if sq.Term == "" {
		return nil, &CatalogError{Type: ErrTypeValidation, Operation: "search", Message: "term is required"}
	}
	client := c.httpClient()

	form := url.Values{}
	form.Set("term", sq.Term)
	form.Set("studyPath", "")
	form.Set("studyPathText", "")
	form.Set("startDatepicker", "")
	form.Set("endDatepicker", "")
	req, err := c.newRequest(ctx, http.MethodPost, "/term/search", nil, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &CatalogError{Type: ErrTypeConfig, Operation: "declare_term", Message: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := c.do(client, req, "declare_term", nil); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("txt_term", sq.Term)
	q.Set("pageOffset", strconv.Itoa(sq.PageOffset))
	q.Set("pageMaxSize", strconv.Itoa(sq.PageSize))
	q.Set("sortColumn", "subjectDescription")
	q.Set("sortDirection", "asc")
	if sq.Subject != "" {
		q.Set("txt_subject", strings.ToUpper(sq.Subject))
	}
	if sq.CourseNumber != "" {
		q.Set("txt_courseNumber", sq.CourseNumber)
	}

	var raw bannerSearchResponse
	if err := c.getJSON(ctx, client, "search", "/searchResults/searchResults", q, &raw); err != nil {
		return nil, err
	}

	result := &SearchResult{Success: raw.Success, TotalCount: raw.TotalCount}
	if !raw.Success {
		return result, nil
	}
	result.Classes = make([]domain.Class, 0, len(raw.Data))
	for _, s := range raw.Data {
		result.Classes = append(result.Classes, toClass(s))
	}
	return result, nil
}

func (c *BannerClient) getJSON(ctx context.Context, client *http.Client, operation, path string, q url.Values, dest interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return &CatalogError{Type: ErrTypeConfig, Operation: operation, Message: "build request", Cause: err}
	}
	return c.do(client, req, operation, dest)
}

func (c *BannerClient) newRequest(ctx context.Context, method, path string, q url.Values, body io.Reader) (*http.Request, error) {
	u := c.config.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	return req, nil
}

func (c *BannerClient) do(client *http.Client, req *http.Request, operation string, dest interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return &CatalogError{Type: ErrTypeNetwork, Operation: operation, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &CatalogError{Type: ErrTypeNetwork, Operation: operation, Message: "read body", Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return &CatalogError{
			Type:      ErrTypeUpstream,
			Code:      resp.StatusCode,
			Operation: operation,
			Message:   fmt.Sprintf("status %d: %s", resp.StatusCode, snippet),
		}
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &CatalogError{Type: ErrTypeDecode, Operation: operation, Message: "unexpected response format", Cause: err}
	}
	return nil
}
