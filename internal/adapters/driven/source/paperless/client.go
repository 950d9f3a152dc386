// Package paperless provides a read-only document source backed by the
// Paperless-ngx REST API.
package paperless

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.DocumentSource = (*Client)(nil)

const serviceName = "paperless"

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second

	// idPageSize is the page size used when enumerating document ids.
	idPageSize = 100

	// tagPageSize fetches all tags in one request on typical installs.
	tagPageSize = 1000
)

// Config holds configuration for the Paperless client.
type Config struct {
	// BaseURL is the Paperless-ngx URL, e.g. http://paperless:8000.
	BaseURL string

	// Token is the API token sent as "Authorization: Token <token>".
	Token string

	// RequestsPerSecond throttles outgoing calls. Zero disables throttling.
	RequestsPerSecond float64

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Client reads documents and tags from Paperless-ngx.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
	limiter *rate.Limiter
}

// apiDocument is the Paperless document representation.
type apiDocument struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	Content          string `json:"content"`
	Created          string `json:"created"`
	Tags             []int  `json:"tags"`
	Correspondent    *int   `json:"correspondent"`
	DocumentType     *int   `json:"document_type"`
	OriginalFileName string `json:"original_file_name"`
}

type apiTag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// listResponse is the paginated envelope used by every list endpoint.
type listResponse[T any] struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// NewClient creates a Paperless client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: paperless url is required", domain.ErrInvalidInput)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := max(1, int(cfg.RequestsPerSecond))
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c, nil
}

// idRow is a list result trimmed to its id by the fields parameter.
type idRow struct {
	ID int `json:"id"`
}

// ListDocumentIDs pages through every document ordered by id. Only the id
// field is requested so the OCR text stays on the server.
func (c *Client) ListDocumentIDs(ctx context.Context) ([]int, error) {
	var ids []int
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("ordering", "id")
		q.Set("fields", "id")
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(idPageSize))

		var resp listResponse[idRow]
		if err := c.get(ctx, "list documents", "/api/documents/", q, &resp); err != nil {
			return nil, err
		}
		for _, d := range resp.Results {
			ids = append(ids, d.ID)
		}
		if resp.Next == nil || len(resp.Results) == 0 {
			return ids, nil
		}
	}
}

// GetDocument fetches a single document with its content.
func (c *Client) GetDocument(ctx context.Context, id int) (*domain.Document, error) {
	var doc apiDocument
	if err := c.get(ctx, "get document", fmt.Sprintf("/api/documents/%d/", id), nil, &doc); err != nil {
		return nil, err
	}
	out := doc.toDomain()
	return &out, nil
}

// ListDocuments returns one page of documents.
func (c *Client) ListDocuments(ctx context.Context, opts domain.ListOptions) (*domain.DocumentPage, error) {
	q := url.Values{}
	if len(opts.TagIDs) > 0 {
		ids := make([]string, len(opts.TagIDs))
		for i, id := range opts.TagIDs {
			ids[i] = strconv.Itoa(id)
		}
		q.Set("tags__id__all", strings.Join(ids, ","))
	}
	if opts.Ordering != "" {
		q.Set("ordering", opts.Ordering)
	}
	q.Set("page", strconv.Itoa(max(opts.Page, 1)))
	if opts.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(opts.PageSize))
	}

	var resp listResponse[apiDocument]
	if err := c.get(ctx, "list documents", "/api/documents/", q, &resp); err != nil {
		return nil, err
	}

	page := &domain.DocumentPage{
		Count:     resp.Count,
		Documents: make([]domain.Document, len(resp.Results)),
		HasNext:   resp.Next != nil,
	}
	for i, d := range resp.Results {
		page.Documents[i] = d.toDomain()
	}
	return page, nil
}

// ListTags returns every tag, following pagination on large installs.
func (c *Client) ListTags(ctx context.Context) ([]domain.Tag, error) {
	var tags []domain.Tag
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(tagPageSize))

		var resp listResponse[apiTag]
		if err := c.get(ctx, "list tags", "/api/tags/", q, &resp); err != nil {
			return nil, err
		}
		for _, t := range resp.Results {
			tags = append(tags, domain.Tag{ID: t.ID, Name: t.Name})
		}
		if resp.Next == nil || len(resp.Results) == 0 {
			return tags, nil
		}
	}
}

// get performs an authenticated GET and decodes the JSON body into out.
// A 404 wraps domain.ErrNotFound; other failures are transport errors.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &domain.TransportError{Service: serviceName, Op: op, Err: err}
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &domain.TransportError{Service: serviceName, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.TransportError{Service: serviceName, Op: op, Status: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", serviceName, op, domain.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &domain.TransportError{Service: serviceName, Op: op, Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &domain.TransportError{
			Service: serviceName, Op: op, Status: resp.StatusCode,
			Err: fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

func (d apiDocument) toDomain() domain.Document {
	return domain.Document{
		ID:              d.ID,
		Title:           d.Title,
		Content:         d.Content,
		Created:         parseCreated(d.Created),
		Filename:        d.OriginalFileName,
		TagIDs:          d.Tags,
		CorrespondentID: d.Correspondent,
		DocumentTypeID:  d.DocumentType,
	}
}

// parseCreated accepts both the full timestamp of older Paperless releases
// and the plain date newer ones return. Unparseable values yield zero.
func parseCreated(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
