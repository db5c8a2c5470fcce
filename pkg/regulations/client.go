// Package regulations talks to the public document registry API: the
// paginated listing endpoint, the per-document detail endpoint, and the
// binary content-download endpoint. All three share one rate-limit quota
// surfaced on every response.
package regulations

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"docketsocket/models"
)

const rateLimitHeader = "X-RateLimit-Remaining"

// ErrNegativeQuota signals that the registry reported a negative remaining
// quota. The header contract only allows zero or positive values, so this
// fails fast instead of retrying forever.
var ErrNegativeQuota = errors.New("registry reported a negative rate limit remaining")

// Client issues rate-limited requests against the registry.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	pageSize int
	backoff  time.Duration
	sleep    func(time.Duration)
	logger   *slog.Logger
}

// NewClient creates a registry client from configuration.
func NewClient(cfg models.RegistryConfig, logger *slog.Logger) *Client {
	return &Client{
		http:     &http.Client{},
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		backoff:  cfg.Backoff(),
		sleep:    time.Sleep,
		logger:   logger,
	}
}

// PageSize returns the configured listing page size.
func (c *Client) PageSize() int {
	return c.pageSize
}

// Get fetches rawURL, blocking through rate-limit exhaustion. A zero
// remaining quota sleeps for the backoff window and retries the same URL
// until the quota resets; the external quota resets on a fixed cadence, so
// the retry interval is fixed and unbounded.
func (c *Client) Get(rawURL string) (*http.Response, error) {
	for {
		resp, err := c.http.Get(rawURL)
		if err != nil {
			return nil, fmt.Errorf("registry request failed: %w", err)
		}

		remaining, err := strconv.Atoi(resp.Header.Get(rateLimitHeader))
		if err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("registry response missing %s header: %w", rateLimitHeader, err)
		}
		if remaining < 0 {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", ErrNegativeQuota, remaining)
		}
		if remaining == 0 {
			_ = resp.Body.Close()
			c.logger.Warn("rate limited, waiting to retry", "backoff", c.backoff.String(), "url", rawURL)
			c.sleep(c.backoff)
			continue
		}
		return resp, nil
	}
}

// getJSON fetches rawURL and decodes the body into v.
func (c *Client) getJSON(rawURL string, v any) error {
	resp, err := c.Get(rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry returned status %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read registry response: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode registry response: %w", err)
	}
	return nil
}

// ListPage is one page of the documents listing.
type ListPage struct {
	TotalNumRecords int                    `json:"totalNumRecords"`
	Documents       []models.RecordSummary `json:"documents"`
}

// ListDocuments fetches one listing page for a docket at the given record
// offset.
func (c *Client) ListDocuments(docketID string, offset int) (*ListPage, error) {
	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("countsOnly", "0")
	query.Set("dktid", docketID)
	query.Set("rpp", strconv.Itoa(c.pageSize))
	if offset > 0 {
		query.Set("po", strconv.Itoa(offset))
	}

	page := &ListPage{}
	if err := c.getJSON(c.baseURL+"/documents.json?"+query.Encode(), page); err != nil {
		return nil, err
	}
	return page, nil
}

// CountRecords reports how many records exist for a docket. Used as the
// existence pre-check before a run starts.
func (c *Client) CountRecords(docketID string) (int, error) {
	page, err := c.ListDocuments(docketID, 0)
	if err != nil {
		return 0, err
	}
	return page.TotalNumRecords, nil
}

// GetDocument fetches the full detail for one document ID.
func (c *Client) GetDocument(documentID string) (*Document, error) {
	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("documentId", documentID)

	doc := &Document{}
	if err := c.getJSON(c.baseURL+"/document.json?"+query.Encode(), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Download fetches a file format URL with the API key appended. The caller
// owns the response body.
func (c *Client) Download(fileFormatURL string) (*http.Response, error) {
	sep := "?"
	if u, err := url.Parse(fileFormatURL); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	return c.Get(fileFormatURL + sep + "api_key=" + url.QueryEscape(c.apiKey))
}
