// Package relay fetches platform data through the integration relay and
// maps each payload into ordered records.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	obstracing "github.com/smallbiznis/profitlens/internal/observability/tracing"
	"github.com/smallbiznis/profitlens/internal/record"
	sourcedomain "github.com/smallbiznis/profitlens/internal/source/domain"
)

const (
	defaultTimeout  = 30 * time.Second
	maxErrorBodyLen = 512
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		httpClient: obstracing.WrapHTTPClient(&http.Client{
			Timeout: defaultTimeout,
		}),
	}
}

// Fetch loads the source's current data set from the relay.
func (c *Client) Fetch(ctx context.Context, ds sourcedomain.DataSource) ([]record.Record, error) {
	switch {
	case ds.Type.IsAdPlatform():
		rows, err := fetch[insight](ctx, c, ds, "insights")
		if err != nil {
			return nil, err
		}
		return mapInsights(ds.Type, rows), nil
	case ds.Type.IsCourier():
		rows, err := fetch[shipment](ctx, c, ds, "orders")
		if err != nil {
			return nil, err
		}
		return mapShipments(ds.Type, rows), nil
	case ds.Type == sourcedomain.TypeShopify:
		rows, err := fetch[shopifyOrder](ctx, c, ds, "orders")
		if err != nil {
			return nil, err
		}
		return mapShopifyOrders(rows), nil
	case ds.Type == sourcedomain.TypeGoogleSheets:
		return fetch[record.Record](ctx, c, ds, "rows")
	default:
		return nil, fmt.Errorf("relay: unsupported source type %q", ds.Type)
	}
}

type envelope[T any] struct {
	Data []T `json:"data"`
}

func fetch[T any](ctx context.Context, c *Client, ds sourcedomain.DataSource, resource string) ([]T, error) {
	endpoint := fmt.Sprintf("%s/v1/sources/%s/%s/%s",
		c.baseURL,
		url.PathEscape(string(ds.Type)),
		url.PathEscape(ds.ID),
		resource,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var env envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("relay: decode %s: %w", resource, err)
	}
	return env.Data, nil
}

// StatusError is a non-2xx relay response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("relay returned %d", e.StatusCode)
	}
	return fmt.Sprintf("relay returned %d: %s", e.StatusCode, e.Body)
}
