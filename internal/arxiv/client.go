// Package arxiv fetches paper metadata from the arXiv export API.
package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the arXiv export API query endpoint.
	BaseURL = "http://export.arxiv.org/api/query"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateInterval is the minimum spacing between requests.
	// arXiv's API terms ask for no more than one request every three seconds.
	DefaultRateInterval = 3 * time.Second

	// DefaultPageSize is the number of results requested per listing page.
	DefaultPageSize = 100

	// maxResponseBytes bounds how much of a feed we are willing to decode.
	maxResponseBytes = 4 << 20
)

// Client is a rate-limited HTTP client for the arXiv export API.
// It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	baseURL    string
	pageSize   int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
// The client is never modified; WithTimeout applies to a copy.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout sets the per-request timeout, whatever the option order.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithPageSize sets how many results each listing request asks for.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		c.pageSize = n
	}
}

// WithRateInterval sets the minimum spacing between requests.
// Zero or negative disables rate limiting.
func WithRateInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		if interval <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// NewClient creates a new arXiv API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		limiter:  rate.NewLimiter(rate.Every(DefaultRateInterval), 1),
		baseURL:  BaseURL,
		pageSize: DefaultPageSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}

	return c
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
// 400 responses carry an error feed and are decoded by the caller.
func checkHTTPErrors(resp *http.Response, paperID string) error {
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, paperID)
	}
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusBadRequest {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       "api_error",
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
			PaperID:    paperID,
		}
	}
	return nil
}

// query performs one rate-limited request against the export API.
func (c *Client) query(ctx context.Context, params url.Values, paperID string) (*atomFeed, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/atom+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp, paperID); err != nil {
		return nil, resp.StatusCode, err
	}

	var feed atomFeed
	dec := xml.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	if err := dec.Decode(&feed); err != nil {
		if resp.StatusCode == http.StatusBadRequest {
			return nil, resp.StatusCode, &APIError{
				StatusCode: resp.StatusCode,
				Code:       "bad_request",
				Message:    "HTTP 400",
				PaperID:    paperID,
			}
		}
		return nil, resp.StatusCode, fmt.Errorf("%w: parsing feed: %v", ErrInvalidResponse, err)
	}

	return &feed, resp.StatusCode, nil
}

// GetPaper fetches the metadata of a single paper by identifier.
// Unknown identifiers return an error satisfying IsNotFound; malformed ones wrap ErrInvalidID.
func (c *Client) GetPaper(ctx context.Context, paperID string) (*Paper, error) {
	id, err := NormalizeID(paperID)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("id_list", id)
	params.Set("max_results", "1")

	feed, status, err := c.query(ctx, params, paperID)
	if err != nil {
		return nil, err
	}

	if len(feed.Entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, paperID)
	}

	entry := feed.Entries[0]
	if entry.isError() {
		err := errorFromEntry(entry, status, paperID)
		if errors.Is(err, ErrInvalidID) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, paperID, err)
	}
	// Unknown but well-formed IDs come back as an entry with no title.
	if strings.TrimSpace(entry.Title) == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, paperID)
	}

	paper := entryToPaper(entry)
	return &paper, nil
}

// errorFromEntry converts an arXiv error entry to an error.
func errorFromEntry(entry atomEntry, status int, paperID string) error {
	code := strings.TrimPrefix(entry.ID, errorIDPrefix)
	code = strings.TrimPrefix(code, "#")
	msg := collapseWhitespace(entry.Summary)

	if strings.HasPrefix(code, "incorrect_id_format") {
		return fmt.Errorf("%w: %s", ErrInvalidID, msg)
	}
	if status == 0 {
		status = http.StatusOK
	}
	return &APIError{
		StatusCode: status,
		Code:       code,
		Message:    msg,
		PaperID:    paperID,
	}
}

// entryToPaper converts an Atom entry into a Paper.
func entryToPaper(e atomEntry) Paper {
	p := Paper{
		ID:              idFromEntryURL(strings.TrimSpace(e.ID)),
		Title:           collapseWhitespace(e.Title),
		Summary:         collapseWhitespace(e.Summary),
		PrimaryCategory: e.PrimaryCategory.Term,
		DOI:             strings.TrimSpace(e.DOI),
		JournalRef:      collapseWhitespace(e.JournalRef),
		Comment:         collapseWhitespace(e.Comment),
		AbsURL:          strings.TrimSpace(e.ID),
	}

	p.Published = parseTime(e.Published)
	p.Updated = parseTime(e.Updated)

	for _, a := range e.Authors {
		p.Authors = append(p.Authors, Author{
			Name:        collapseWhitespace(a.Name),
			Affiliation: collapseWhitespace(a.Affiliation),
		})
	}

	for _, cat := range e.Categories {
		if cat.Term != "" {
			p.Categories = append(p.Categories, cat.Term)
		}
	}

	for _, link := range e.Links {
		switch {
		case link.Title == "pdf" || link.Type == "application/pdf":
			p.PDFURL = link.Href
		case link.Rel == "alternate":
			p.AbsURL = link.Href
		}
	}

	return p
}

// parseTime parses an RFC 3339 timestamp, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Year returns the publication year, or 0 when unknown.
func (p Paper) Year() int {
	if p.Published.IsZero() {
		return 0
	}
	return p.Published.Year()
}
