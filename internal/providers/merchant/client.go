// Package merchant implements the merchant platform REST provider.
package merchant

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	merchantdomain "github.com/storelens/service-analytics/internal/domain/merchant"
)

// DefaultAPIVersion pins the platform REST API version the client
// speaks.
const DefaultAPIVersion = "2024-07"

// pageInfoParam carries the pagination continuation token between
// pages. It is handed back by the platform in the Link header.
const pageInfoParam = "page_info"

// Client is the merchant platform API client. It attaches the store's
// bearer credential to every call, bounds the per-store call rate, and
// surfaces non-2xx responses as typed APIErrors. It performs no
// automatic retry unless a retry policy is explicitly configured.
type Client struct {
	shopDomain  string
	accessToken string
	apiVersion  string
	baseURL     string
	httpClient  *http.Client
	logger      *zap.Logger
	retryPolicy *merchantdomain.RetryPolicy
	rateLimiter *merchantdomain.RateLimiter
}

// ClientConfig holds configuration for the merchant client.
type ClientConfig struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string
	// BaseURL overrides the endpoint derived from ShopDomain. Used for
	// sandbox and test targets.
	BaseURL        string
	Logger         *zap.Logger
	RetryPolicy    *merchantdomain.RetryPolicy
	RateLimit      *merchantdomain.RateLimitConfig
	RequestTimeout time.Duration
}

// NewClient creates a new merchant platform API client.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg.ShopDomain == "" {
		return nil, merchantdomain.NewAuthError("shop domain is required")
	}
	if cfg.AccessToken == "" {
		return nil, merchantdomain.NewAuthError("access token is required")
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	retryPolicy := cfg.RetryPolicy
	if retryPolicy == nil {
		retryPolicy = merchantdomain.NoRetryPolicy()
	}

	rateLimit := merchantdomain.DefaultRateLimitConfig()
	if cfg.RateLimit != nil {
		rateLimit = *cfg.RateLimit
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://" + cfg.ShopDomain
	}

	return &Client{
		shopDomain:  cfg.ShopDomain,
		accessToken: cfg.AccessToken,
		apiVersion:  apiVersion,
		baseURL:     baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:      logger,
		retryPolicy: retryPolicy,
		rateLimiter: merchantdomain.NewRateLimiter(rateLimit),
	}, nil
}

// ShopDomain returns the store domain this client is bound to.
func (c *Client) ShopDomain() string {
	return c.shopDomain
}

// Request represents a page fetch against the platform API.
type Request struct {
	Path      string
	Query     map[string]string
	PageToken string
}

// FetchPage performs a single GET against the platform, decodes the
// body into result, and returns the continuation token for the next
// page. An empty token means the last page was reached.
func (c *Client) FetchPage(ctx context.Context, req *Request, result interface{}) (string, error) {
	if err := c.rateLimiter.Wait(ctx, req.Path); err != nil {
		return "", err
	}

	executor := merchantdomain.NewExecutor(c.retryPolicy)

	var nextToken string
	retryResult := executor.Execute(ctx, func() error {
		token, err := c.doRequest(ctx, req, result)
		nextToken = token
		return err
	})

	if retryResult.LastError != nil {
		c.logger.Error("merchant API request failed",
			zap.String("path", req.Path),
			zap.Int("attempts", retryResult.Attempts),
			zap.Duration("duration", retryResult.Duration),
			zap.Error(retryResult.LastError),
		)
		return "", retryResult.LastError
	}

	return nextToken, nil
}

// FetchAll walks all pages of a listing, invoking decode once per page
// with the raw body. Pagination continues until the Link header stops
// carrying a rel="next" relation.
func (c *Client) FetchAll(ctx context.Context, req *Request, decode func(body json.RawMessage) error) error {
	pageToken := req.PageToken
	for {
		var body json.RawMessage
		page := &Request{Path: req.Path, Query: req.Query, PageToken: pageToken}
		next, err := c.FetchPage(ctx, page, &body)
		if err != nil {
			return err
		}
		if err := decode(body); err != nil {
			return err
		}
		if next == "" {
			return nil
		}
		pageToken = next
	}
}

// doRequest performs a single HTTP request without retry.
func (c *Client) doRequest(ctx context.Context, req *Request, result interface{}) (string, error) {
	endpoint := fmt.Sprintf("%s/admin/api/%s%s", c.baseURL, c.apiVersion, req.Path)

	query := url.Values{}
	if req.PageToken != "" {
		// When a continuation token is present the platform rejects any
		// other filter params; the token encodes the original query.
		query.Set(pageInfoParam, req.PageToken)
		if limit, ok := req.Query["limit"]; ok {
			query.Set("limit", limit)
		}
	} else {
		keys := make([]string, 0, len(req.Query))
		for k := range req.Query {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			query.Set(k, req.Query[k])
		}
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("merchant API request completed",
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(startTime)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := merchantdomain.NewUpstreamError(resp.StatusCode, string(respBody))
		c.logger.Warn("merchant API error",
			zap.String("path", req.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("kind", string(apiErr.Kind)),
		)
		return "", apiErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return "", merchantdomain.NewParseError(fmt.Sprintf("decoding %s response", req.Path), err)
		}
	}

	return nextPageToken(resp.Header.Get("Link")), nil
}

// nextPageToken extracts the continuation token from the Link header's
// rel="next" relation. An absent relation means the last page.
func nextPageToken(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	for _, part := range strings.Split(linkHeader, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		if !strings.Contains(segments[1], `rel="next"`) {
			continue
		}
		rawURL := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return ""
		}
		return parsed.Query().Get(pageInfoParam)
	}
	return ""
}
