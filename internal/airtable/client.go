// Package airtable is a client for the Airtable Metadata API: paginated
// schema retrieval with client-side rate limiting and retry on transient
// failures.
package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/baseguide/baseguide/internal/schema"
)

const apiRoot = "https://api.airtable.com/v0"

// Airtable allows 5 requests per second per base.
const requestsPerSecond = 5

// Client retrieves base metadata.
type Client struct {
	root           string
	token          string
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxRetries     uint64
	initialBackoff time.Duration
	logger         *slog.Logger
}

// NewClient creates a metadata client. Transient failures (timeouts, 429,
// 5xx) are retried up to maxRetries times with exponential backoff
// starting at initialBackoff.
func NewClient(token string, timeout time.Duration, maxRetries int, initialBackoff time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		root:           apiRoot,
		token:          token,
		httpClient:     &http.Client{Timeout: timeout},
		limiter:        rate.NewLimiter(requestsPerSecond, requestsPerSecond),
		maxRetries:     uint64(maxRetries),
		initialBackoff: initialBackoff,
		logger:         logger,
	}
}

// FetchBaseSchema retrieves the full base schema including tables and
// views. A 404 on a table's views is tolerated as "no views".
func (c *Client) FetchBaseSchema(ctx context.Context, baseID string) (*schema.BaseSchema, error) {
	info, err := c.fetchBaseInformation(ctx, baseID)
	if err != nil {
		return nil, err
	}

	rawTables, err := c.fetchPaginated(ctx, fmt.Sprintf("/meta/bases/%s/tables", baseID), "tables")
	if err != nil {
		return nil, err
	}

	tables := make([]schema.Table, 0, len(rawTables))
	for _, raw := range rawTables {
		var table schema.Table
		if err := json.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("parsing table metadata: %w", err)
		}

		views, err := c.fetchViews(ctx, baseID, table.ID)
		if err != nil {
			return nil, err
		}
		table.Views = views
		tables = append(tables, table)
	}

	id := info.ID
	if id == "" {
		id = baseID
	}
	name := info.Name
	if name == "" {
		name = id
	}

	return &schema.BaseSchema{ID: id, Name: name, Tables: tables}, nil
}

type baseInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *Client) fetchBaseInformation(ctx context.Context, baseID string) (*baseInfo, error) {
	body, err := c.request(ctx, fmt.Sprintf("/meta/bases/%s", baseID), nil)
	if err != nil {
		return nil, err
	}

	// Some API responses nest the base object under a "base" key.
	var wrapper struct {
		baseInfo
		Base *baseInfo `json:"base"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("parsing base information: %w", err)
	}
	if wrapper.Base != nil {
		return wrapper.Base, nil
	}
	return &wrapper.baseInfo, nil
}

func (c *Client) fetchViews(ctx context.Context, baseID, tableID string) ([]schema.View, error) {
	rawViews, err := c.fetchPaginated(ctx, fmt.Sprintf("/meta/bases/%s/tables/%s/views", baseID, tableID), "views")
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}

	views := make([]schema.View, 0, len(rawViews))
	for _, raw := range rawViews {
		var view schema.View
		if err := json.Unmarshal(raw, &view); err != nil {
			return nil, fmt.Errorf("parsing view metadata: %w", err)
		}
		views = append(views, view)
	}
	return views, nil
}

// fetchPaginated follows the offset cursor until the collection is
// exhausted. A collection value that is not a JSON array is a malformed
// response, not something to coerce.
func (c *Client) fetchPaginated(ctx context.Context, path, collectionKey string) ([]json.RawMessage, error) {
	var items []json.RawMessage
	offset := ""

	for {
		query := url.Values{}
		if offset != "" {
			query.Set("offset", offset)
		}

		body, err := c.request(ctx, path, query)
		if err != nil {
			return nil, err
		}

		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("parsing paginated response: %w", err)
		}

		if raw, ok := envelope[collectionKey]; ok {
			var batch []json.RawMessage
			if err := json.Unmarshal(raw, &batch); err != nil {
				return nil, fmt.Errorf("unexpected response format: %q is not a list", collectionKey)
			}
			items = append(items, batch...)
		}

		next := ""
		if raw, ok := envelope["offset"]; ok {
			if err := json.Unmarshal(raw, &next); err != nil {
				return nil, fmt.Errorf("parsing pagination offset: %w", err)
			}
		}
		if next == "" {
			return items, nil
		}
		offset = next
	}
}

// request performs one rate-limited GET with retries. Auth failures and
// missing resources are permanent; timeouts, 429, and 5xx are retried.
func (c *Client) request(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.root + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Debug("airtable request failed", "attempt", attempt, "error", err)
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			body = data
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			c.logger.Debug("airtable rate limit response", "attempt", attempt)
			return &RateLimitError{}
		case resp.StatusCode >= 500:
			c.logger.Debug("airtable server error", "attempt", attempt, "status", resp.StatusCode)
			return &APIError{StatusCode: resp.StatusCode}
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(&AuthError{})
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(&NotFoundError{Resource: path})
		default:
			return backoff.Permanent(&APIError{StatusCode: resp.StatusCode, Body: string(data)})
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(backoff.WithInitialInterval(c.initialBackoff)),
			c.maxRetries,
		),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return body, nil
}
