// Package search provides the optional web-search enrichment used to
// add external context to classification prompts.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/httpclient"
	"github.com/ternarybob/curator/internal/interfaces"
)

const (
	// DefaultTimeout is generous: search instances can be slow and the
	// caller treats the whole lookup as optional.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries bounds attempts before giving up.
	DefaultMaxRetries = 2
)

// SearxService queries a SearXNG-compatible instance. Failures are
// expected and reported as errors; callers degrade to an empty context
// block rather than failing their own operation.
type SearxService struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	maxRetries int
}

// NewSearxService creates a search service from configuration.
func NewSearxService(cfg *common.SearchConfig) *SearxService {
	timeout := DefaultTimeout
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil {
			timeout = d
		}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &SearxService{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpclient.NewDefaultHTTPClient(timeout),
		logger:     common.GetLogger(),
		maxRetries: maxRetries,
	}
}

type searxResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search queries the instance and returns result snippets. All
// attempts failing returns the last error; the caller decides whether
// that matters.
func (s *SearxService) Search(ctx context.Context, query string, categories []string, language string) ([]interfaces.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	if language != "" {
		params.Set("language", language)
	}
	if len(categories) > 0 {
		params.Set("categories", strings.Join(categories, ","))
	}
	reqURL := fmt.Sprintf("%s/search?%s", s.baseURL, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		results, err := s.doSearch(ctx, reqURL)
		if err == nil {
			return results, nil
		}
		lastErr = err
		s.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Str("query", query).
			Msg("Search request failed")
	}
	return nil, fmt.Errorf("search failed after %d attempts: %w", s.maxRetries, lastErr)
}

func (s *SearxService) doSearch(ctx context.Context, reqURL string) ([]interfaces.SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var decoded searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]interfaces.SearchResult, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		results = append(results, interfaces.SearchResult{
			Title:   r.Title,
			Content: r.Content,
		})
	}
	return results, nil
}
