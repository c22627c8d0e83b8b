package merchant

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelens/service-analytics/internal/analytics"
	merchantdomain "github.com/storelens/service-analytics/internal/domain/merchant"
	"github.com/storelens/service-analytics/internal/providers"
)

// newTestProvider routes every endpoint to the given handler map keyed
// by path.
func newTestProviderServer(t *testing.T, responses map[string]string) (*Provider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for path, body := range responses {
			if r.URL.Path == "/admin/api/"+DefaultAPIVersion+path {
				fmt.Fprint(w, body)
				return
			}
		}
		t.Errorf("unexpected request path %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))

	client, err := NewClient(&ClientConfig{
		ShopDomain:  "example.myshop.test",
		AccessToken: "tok",
		BaseURL:     server.URL,
	})
	require.NoError(t, err)

	return &Provider{client: client, sessions: providers.NewSyntheticSessionSource()}, server
}

func TestGetShopInfo(t *testing.T) {
	p, server := newTestProviderServer(t, map[string]string{
		"/shop.json": `{"shop":{"name":"Test Shop","domain":"test.myshop.test","currency":"USD","plan_name":"basic"}}`,
	})
	defer server.Close()

	shop, err := p.GetShopInfo(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Test Shop", shop.Name)
	assert.Equal(t, "test.myshop.test", shop.Domain)
	assert.Equal(t, "USD", shop.Currency)
	assert.Equal(t, "basic", shop.Plan)
}

func TestGetShopInfoMissingFields(t *testing.T) {
	p, server := newTestProviderServer(t, map[string]string{
		"/shop.json": `{"shop":{}}`,
	})
	defer server.Close()

	_, err := p.GetShopInfo(context.Background())
	assert.ErrorIs(t, err, merchantdomain.ErrMalformedResponse)
}

func TestListOrdersDecodesWireFormat(t *testing.T) {
	p, server := newTestProviderServer(t, map[string]string{
		"/orders.json": `{"orders":[
			{"id":450789469,"customer_id":207119551,"created_at":"2025-06-14T10:00:00Z",
			 "total_price":"409.94",
			 "line_items":[{"product_id":632910392,"title":"Snowboard","price":"199.97","quantity":2}]}
		]}`,
	})
	defer server.Close()

	orders, err := p.ListOrders(context.Background(), providers.OrderListParams{
		CreatedAtMin: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CreatedAtMax: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, "450789469", o.ID)
	assert.Equal(t, "207119551", o.CustomerID)
	// Money arrives as strings on the wire.
	assert.Equal(t, 409.94, o.TotalPrice)
	require.Len(t, o.LineItems, 1)
	assert.Equal(t, "632910392", o.LineItems[0].ProductID)
	assert.Equal(t, 199.97, o.LineItems[0].UnitPrice)
	assert.Equal(t, int64(2), o.LineItems[0].Quantity)
}

func TestListProductsFirstVariantAndImage(t *testing.T) {
	p, server := newTestProviderServer(t, map[string]string{
		"/products.json": `{"products":[
			{"id":1,"handle":"snowboard","title":"Snowboard","status":"active","vendor":"Burton",
			 "variants":[{"price":"199.00","inventory_quantity":12},{"price":"299.00","inventory_quantity":3}],
			 "images":[{"src":"https://cdn.test/1.png"},{"src":"https://cdn.test/2.png"}]},
			{"id":2,"handle":"sticker","title":"Sticker","status":"active","variants":[],"images":[]}
		]}`,
	})
	defer server.Close()

	products, err := p.ListProducts(context.Background(), providers.ProductListParams{})
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, 199.00, products[0].Price)
	assert.Equal(t, int64(12), products[0].StockQuantity)
	assert.Equal(t, "https://cdn.test/1.png", products[0].ImageURL)

	assert.Zero(t, products[1].Price)
	assert.Empty(t, products[1].ImageURL)
}

func TestListProductsPaginationDedupesByHandle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/"+DefaultAPIVersion+"/products.json", r.URL.Path)
		switch r.URL.Query().Get("page_info") {
		case "":
			w.Header().Set("Link", `<http://upstream/admin/api/2024-07/products.json?page_info=tok2>; rel="next"`)
			fmt.Fprint(w, `{"products":[
				{"id":1,"handle":"snowboard","title":"Snowboard","status":"active","variants":[{"price":"199.00","inventory_quantity":5}],"images":[]},
				{"id":2,"handle":"sticker","title":"Sticker","status":"active","variants":[],"images":[]}]}`)
		case "tok2":
			w.Header().Set("Link", `<http://upstream/admin/api/2024-07/products.json?page_info=tok3>; rel="next"`)
			fmt.Fprint(w, `{"products":[{"id":3,"handle":"mug","title":"Mug","status":"active","variants":[],"images":[]}]}`)
		case "tok3":
			fmt.Fprint(w, `{"products":[{"id":4,"handle":"snowboard","title":"Snowboard Restock","status":"active","variants":[{"price":"249.00","inventory_quantity":9}],"images":[]}]}`)
		default:
			t.Errorf("unexpected page_info %q", r.URL.Query().Get("page_info"))
		}
	}))
	defer server.Close()

	client, err := NewClient(&ClientConfig{
		ShopDomain:  "example.myshop.test",
		AccessToken: "tok",
		BaseURL:     server.URL,
	})
	require.NoError(t, err)
	p := &Provider{client: client, sessions: providers.NewSyntheticSessionSource()}

	products, err := p.ListProducts(context.Background(), providers.ProductListParams{})
	require.NoError(t, err)
	// The raw listing keeps both snowboard rows across pages.
	require.Len(t, products, 4)

	// Assembly dedupes by handle; the row from the later page wins.
	records := analytics.AssembleProducts(products, nil)
	require.Len(t, records, 3)

	snowboard := records["snowboard"]
	require.NotNil(t, snowboard)
	assert.Equal(t, "4", snowboard.ID)
	assert.Equal(t, "Snowboard Restock", snowboard.Title)
	assert.Equal(t, 249.00, snowboard.Price)

	assert.Contains(t, records, "sticker")
	assert.Contains(t, records, "mug")
}

func TestListCollectionsAndCollects(t *testing.T) {
	p, server := newTestProviderServer(t, map[string]string{
		"/custom_collections.json": `{"custom_collections":[{"id":10,"title":"Boards","handle":"boards","products_count":4}]}`,
		"/collects.json":           `{"collects":[{"collection_id":10,"product_id":1}]}`,
	})
	defer server.Close()

	collections, err := p.ListCollections(context.Background())
	require.NoError(t, err)
	require.Len(t, collections, 1)
	assert.Equal(t, "10", collections[0].ID)
	assert.Equal(t, "boards", collections[0].Handle)
	assert.Equal(t, int64(4), collections[0].ProductCount)

	collects, err := p.ListCollects(context.Background())
	require.NoError(t, err)
	require.Len(t, collects, 1)
	assert.Equal(t, "10", collects[0].CollectionID)
	assert.Equal(t, "1", collects[0].ProductID)
}

func TestListCustomers(t *testing.T) {
	p, server := newTestProviderServer(t, map[string]string{
		"/customers.json": `{"customers":[
			{"id":7,"created_at":"2024-01-10T00:00:00Z","total_spent":"1250.50","orders_count":8,"last_order_at":"2025-06-01T00:00:00Z"},
			{"id":8,"created_at":"2025-06-10T00:00:00Z","total_spent":"49.99","orders_count":1,"last_order_at":null}
		]}`,
	})
	defer server.Close()

	customers, err := p.ListCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 2)

	assert.Equal(t, "7", customers[0].ID)
	assert.Equal(t, 1250.50, customers[0].TotalSpent)
	assert.Equal(t, int64(8), customers[0].OrdersCount)
	require.NotNil(t, customers[0].LastOrderAt)

	assert.Nil(t, customers[1].LastOrderAt)
}

func TestReportSessionSource(t *testing.T) {
	p, server := newTestProviderServer(t, map[string]string{
		"/reports/sessions.json": `{"sessions":[
			{"date":"2025-06-13","sessions":120,"page_views":480,"add_to_carts":30},
			{"date":"2025-06-14","sessions":80,"page_views":320,"add_to_carts":18}
		]}`,
	})
	defer server.Close()

	src := NewReportSessionSource(p.client)
	assert.Equal(t, providers.SessionSourceReports, src.Name())

	from := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	traffic, err := src.Traffic(context.Background(), from, to, providers.OrderStats{})
	require.NoError(t, err)
	assert.Equal(t, int64(200), traffic.Sessions)
	assert.Equal(t, int64(800), traffic.Views)
	assert.Equal(t, int64(48), traffic.AddToCarts)
	// Measured figures are never flagged as estimates.
	assert.False(t, traffic.Estimated)

	records, err := src.DailySessions(context.Background(), from, to, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2025-06-13", records[0].Date)
	assert.False(t, records[0].Estimated)
}

func TestNewProviderSelectsSessionSource(t *testing.T) {
	synthetic, err := NewProvider(&ProviderConfig{
		ShopDomain:  "shop.test",
		AccessToken: "tok",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, providers.SessionSourceSynthetic, synthetic.Sessions().Name())

	reports, err := NewProvider(&ProviderConfig{
		ShopDomain:    "shop.test",
		AccessToken:   "tok",
		SessionSource: providers.SessionSourceReports,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, providers.SessionSourceReports, reports.Sessions().Name())
}
