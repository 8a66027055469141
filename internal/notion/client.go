// Package notion provides a client for the workspace's structured
// database service.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/httpclient"
	"github.com/ternarybob/curator/internal/models"
)

const (
	// DefaultBaseURL is the base URL of the database service API.
	DefaultBaseURL = "https://api.notion.com/v1"

	// DefaultVersion is the API version header sent with every request.
	DefaultVersion = "2022-06-28"

	// DefaultRateLimit is the minimum spacing between outbound calls.
	DefaultRateLimit = 500 * time.Millisecond

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	pageSize = 100
)

// Client is a database-service API client. All outbound calls pass a
// shared minimum-interval limiter so concurrent callers still observe
// the global spacing.
type Client struct {
	baseURL    string
	token      string
	version    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	cache      *queryCache
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithVersion sets the API version header.
func WithVersion(version string) ClientOption {
	return func(c *Client) {
		c.version = version
	}
}

// WithRateLimit sets the minimum spacing between outbound calls.
func WithRateLimit(minInterval time.Duration) ClientOption {
	return func(c *Client) {
		if minInterval > 0 {
			c.limiter = rate.NewLimiter(rate.Every(minInterval), 1)
		}
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a database-service client.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		version: DefaultVersion,
		httpClient: httpclient.NewDefaultHTTPClient(DefaultTimeout),
		logger:  common.GetLogger(),
		limiter: rate.NewLimiter(rate.Every(DefaultRateLimit), 1),
		cache:   newQueryCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig creates a client from the application
// configuration.
func NewClientFromConfig(cfg *common.NotionConfig) *Client {
	var opts []ClientOption
	if d, err := time.ParseDuration(cfg.RateLimit); err == nil && d > 0 {
		opts = append(opts, WithRateLimit(d))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	if cfg.Version != "" {
		opts = append(opts, WithVersion(cfg.Version))
	}
	if d, err := time.ParseDuration(cfg.RequestTimeout); err == nil && d > 0 {
		opts = append(opts, WithHTTPClient(httpclient.NewDefaultHTTPClient(d)))
	}
	return NewClient(cfg.Token, opts...)
}

// APIError represents a non-2xx response from the database service.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// do performs one request against the API, waiting on the shared
// limiter first. body is marshaled as JSON when non-nil; result is
// unmarshaled from the response when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Msg("Database service request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(msg),
			Endpoint:   path,
		}
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type listResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

// collectPaginated loops a cursor-paginated request until has_more is
// false, invoking call once per page. The shared limiter spaces pages.
func (c *Client) collectPaginated(ctx context.Context, call func(cursor string) (*listResponse, error)) ([]json.RawMessage, error) {
	var all []json.RawMessage
	cursor := ""
	for {
		page, err := call(cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Results...)
		if !page.HasMore || page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

// ListDatabases lists all databases visible to the workspace token.
func (c *Client) ListDatabases(ctx context.Context) ([]models.Page, error) {
	raw, err := c.collectPaginated(ctx, func(cursor string) (*listResponse, error) {
		body := map[string]any{
			"filter":    map[string]string{"value": "database", "property": "object"},
			"page_size": pageSize,
		}
		if cursor != "" {
			body["start_cursor"] = cursor
		}
		var resp listResponse
		if err := c.do(ctx, http.MethodPost, "/search", body, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	return decodePages(raw), nil
}

// GetDatabaseByName resolves a database id from its title. Returns ""
// when no database matches.
func (c *Client) GetDatabaseByName(ctx context.Context, name string) (string, error) {
	databases, err := c.ListDatabases(ctx)
	if err != nil {
		return "", err
	}
	for _, db := range databases {
		if joinPlainText(db.Title) == name {
			return db.ID, nil
		}
	}
	return "", nil
}

// QueryDatabase returns all rows matching the filter, following
// pagination until exhaustion. A nil filter returns every row.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, filter *models.Filter) ([]models.Page, error) {
	path := fmt.Sprintf("/databases/%s/query", url.PathEscape(databaseID))
	raw, err := c.collectPaginated(ctx, func(cursor string) (*listResponse, error) {
		body := map[string]any{"page_size": pageSize}
		if filter != nil {
			body["filter"] = buildFilter(filter)
		}
		if cursor != "" {
			body["start_cursor"] = cursor
		}
		var resp listResponse
		if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query database %s: %w", databaseID, err)
	}
	return decodePages(raw), nil
}

// GetDatabaseContent returns all rows of a database. When useCache is
// true and the database was fetched before, the cached rows are
// returned without touching the service. Entries never expire; callers
// invalidate explicitly when underlying data changed.
func (c *Client) GetDatabaseContent(ctx context.Context, databaseID string, useCache bool) ([]models.Page, error) {
	if useCache {
		if pages, ok := c.cache.get(databaseID); ok {
			c.logger.Debug().Str("database_id", databaseID).Msg("Serving database content from cache")
			return pages, nil
		}
	}
	pages, err := c.QueryDatabase(ctx, databaseID, nil)
	if err != nil {
		return nil, err
	}
	c.cache.put(databaseID, pages)
	return pages, nil
}

// InvalidateCache drops the cached content for a database, or all
// cached content when databaseID is "".
func (c *Client) InvalidateCache(databaseID string) {
	c.cache.invalidate(databaseID)
}

// GetDatabaseSchema returns the database's property schema keyed by
// property name.
func (c *Client) GetDatabaseSchema(ctx context.Context, databaseID string) (map[string]models.Property, error) {
	var resp struct {
		Properties map[string]models.Property `json:"properties"`
	}
	path := fmt.Sprintf("/databases/%s", url.PathEscape(databaseID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to retrieve database %s: %w", databaseID, err)
	}
	return resp.Properties, nil
}

// AddDatabaseProperty adds a property to a database schema.
// defaultValue configures type-specific schema options (select options
// for select types, number format for numbers).
func (c *Client) AddDatabaseProperty(ctx context.Context, databaseID, name, propType string, defaultValue any) error {
	schema := map[string]any{}
	if defaultValue != nil {
		schema[propType] = defaultValue
	} else {
		schema[propType] = map[string]any{}
	}
	body := map[string]any{
		"properties": map[string]any{name: schema},
	}
	path := fmt.Sprintf("/databases/%s", url.PathEscape(databaseID))
	if err := c.do(ctx, http.MethodPatch, path, body, nil); err != nil {
		return fmt.Errorf("failed to add property %q: %w", name, err)
	}
	c.cache.invalidate(databaseID)
	return nil
}

// RemoveDatabaseProperty removes a property from a database schema.
func (c *Client) RemoveDatabaseProperty(ctx context.Context, databaseID, name string) error {
	body := map[string]any{
		"properties": map[string]any{name: nil},
	}
	path := fmt.Sprintf("/databases/%s", url.PathEscape(databaseID))
	if err := c.do(ctx, http.MethodPatch, path, body, nil); err != nil {
		return fmt.Errorf("failed to remove property %q: %w", name, err)
	}
	c.cache.invalidate(databaseID)
	return nil
}

// CreatePage creates a row in a database and returns its id.
func (c *Client) CreatePage(ctx context.Context, databaseID string, properties map[string]any) (string, error) {
	body := map[string]any{
		"parent":     map[string]string{"database_id": databaseID},
		"properties": properties,
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/pages", body, &resp); err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	c.cache.invalidate(databaseID)
	return resp.ID, nil
}

// UpdatePageProperties patches page properties with service-shaped
// payloads.
func (c *Client) UpdatePageProperties(ctx context.Context, pageID string, properties map[string]any) error {
	body := map[string]any{"properties": properties}
	path := fmt.Sprintf("/pages/%s", url.PathEscape(pageID))
	if err := c.do(ctx, http.MethodPatch, path, body, nil); err != nil {
		return fmt.Errorf("failed to update page %s: %w", pageID, err)
	}
	return nil
}

// ListBlockChildren returns the ordered block records of a page.
func (c *Client) ListBlockChildren(ctx context.Context, blockID string) ([]models.Block, error) {
	basePath := fmt.Sprintf("/blocks/%s/children", url.PathEscape(blockID))
	raw, err := c.collectPaginated(ctx, func(cursor string) (*listResponse, error) {
		path := fmt.Sprintf("%s?page_size=%d", basePath, pageSize)
		if cursor != "" {
			path += "&start_cursor=" + url.QueryEscape(cursor)
		}
		var resp listResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list block children for %s: %w", blockID, err)
	}

	blocks := make([]models.Block, 0, len(raw))
	for _, r := range raw {
		var b models.Block
		if err := json.Unmarshal(r, &b); err != nil {
			c.logger.Warn().Err(err).Msg("Skipping undecodable block record")
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// buildFilter translates a Filter into the service's wire filter
// payload: {"property": name, "<type>": {"<condition>": value}}.
func buildFilter(f *models.Filter) map[string]any {
	propType := f.Type
	if propType == "" {
		propType = models.PropertyRichText
	}
	condition := f.Condition
	if condition == "" {
		condition = "equals"
	}

	var value any = f.Value
	switch propType {
	case models.PropertyCheckbox:
		value = f.Value == "true"
	case models.PropertyNumber:
		var n float64
		fmt.Sscanf(f.Value, "%f", &n)
		value = n
	}

	return map[string]any{
		"property": f.Property,
		propType:   map[string]any{condition: value},
	}
}

func decodePages(raw []json.RawMessage) []models.Page {
	pages := make([]models.Page, 0, len(raw))
	for _, r := range raw {
		var p models.Page
		if err := json.Unmarshal(r, &p); err != nil {
			continue
		}
		pages = append(pages, p)
	}
	return pages
}

func joinPlainText(runs []models.RichText) string {
	var out string
	for _, r := range runs {
		out += r.Content()
	}
	return out
}
