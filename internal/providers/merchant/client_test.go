package merchant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	merchantdomain "github.com/storelens/service-analytics/internal/domain/merchant"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClient(&ClientConfig{
		ShopDomain:  "example.myshop.test",
		AccessToken: "shpat_test_token",
		BaseURL:     serverURL,
	})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(&ClientConfig{AccessToken: "tok"})
	assert.ErrorIs(t, err, merchantdomain.ErrMissingCredentials)

	_, err = NewClient(&ClientConfig{ShopDomain: "shop.test"})
	assert.ErrorIs(t, err, merchantdomain.ErrMissingCredentials)
}

func TestFetchAllWalksLinkHeader(t *testing.T) {
	var requests []*http.Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Clone(context.Background()))

		switch r.URL.Query().Get("page_info") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2024-07/orders.json?page_info=tok2&limit=250>; rel="next"`, "http://upstream"))
			fmt.Fprint(w, `{"orders":[{"id":1}]}`)
		case "tok2":
			w.Header().Set("Link",
				`<http://upstream/admin/api/2024-07/orders.json?page_info=tok1>; rel="previous", `+
					`<http://upstream/admin/api/2024-07/orders.json?page_info=tok3>; rel="next"`)
			fmt.Fprint(w, `{"orders":[{"id":2}]}`)
		case "tok3":
			fmt.Fprint(w, `{"orders":[{"id":3}]}`)
		default:
			t.Errorf("unexpected page_info %q", r.URL.Query().Get("page_info"))
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	var pages int
	err := client.FetchAll(context.Background(), &Request{
		Path:  "/orders.json",
		Query: map[string]string{"limit": "250", "status": "any"},
	}, func(body json.RawMessage) error {
		pages++
		return nil
	})
	require.NoError(t, err)

	// Exactly one request per page, no refetching.
	assert.Equal(t, 3, pages)
	require.Len(t, requests, 3)

	for _, r := range requests {
		assert.Equal(t, "Bearer shpat_test_token", r.Header.Get("Authorization"))
		assert.Equal(t, "/admin/api/2024-07/orders.json", r.URL.Path)
	}

	// The first request carries the filter params; continuation
	// requests carry only the token and the page size.
	first := requests[0].URL.Query()
	assert.Equal(t, "any", first.Get("status"))
	assert.Empty(t, first.Get("page_info"))

	second := requests[1].URL.Query()
	assert.Equal(t, "tok2", second.Get("page_info"))
	assert.Equal(t, "250", second.Get("limit"))
	assert.Empty(t, second.Get("status"))

	assert.Equal(t, "tok3", requests[2].URL.Query().Get("page_info"))
}

func TestFetchPageUpstreamErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		kind     merchantdomain.ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, `{"errors":"invalid token"}`, merchantdomain.ErrUnauthorized, merchantdomain.KindAuth},
		{"rate limited", http.StatusTooManyRequests, "slow down", merchantdomain.ErrRateLimited, merchantdomain.KindRateLimit},
		{"server error", http.StatusBadGateway, "bad gateway", merchantdomain.ErrServiceUnavailable, merchantdomain.KindServer},
		{"not found", http.StatusNotFound, "no such shop", merchantdomain.ErrResourceNotFound, merchantdomain.KindUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)

			_, err := client.FetchPage(context.Background(), &Request{Path: "/shop.json"}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var apiErr *merchantdomain.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.body, apiErr.Body)
		})
	}
}

func TestFetchPageParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"shop": not json`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	var result struct{}
	_, err := client.FetchPage(context.Background(), &Request{Path: "/shop.json"}, &result)
	require.Error(t, err)
	assert.ErrorIs(t, err, merchantdomain.ErrMalformedResponse)
}

func TestFetchPageNoAutomaticRetry(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.FetchPage(context.Background(), &Request{Path: "/shop.json"}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, hits)
}

func TestNextPageToken(t *testing.T) {
	assert.Empty(t, nextPageToken(""))
	assert.Empty(t, nextPageToken(`<http://x/a?page_info=t>; rel="previous"`))
	assert.Equal(t, "abc", nextPageToken(`<http://x/a?page_info=abc&limit=50>; rel="next"`))
	assert.Equal(t, "n", nextPageToken(
		`<http://x/a?page_info=p>; rel="previous", <http://x/a?page_info=n>; rel="next"`))
}
