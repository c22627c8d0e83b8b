package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storelens/service-analytics/internal/config"
	merchantdomain "github.com/storelens/service-analytics/internal/domain/merchant"
	"github.com/storelens/service-analytics/internal/models"
	"github.com/storelens/service-analytics/internal/providers"
	"github.com/storelens/service-analytics/internal/services"
)

// stubProviderSource fails every store resolution with a fixed error.
type stubProviderSource struct {
	err error
}

func (s *stubProviderSource) ForStore(ctx context.Context, storeID uuid.UUID) (providers.MerchantProvider, *models.Store, error) {
	return nil, nil, s.err
}

func newFailingAnalyticsHandler(t *testing.T, err error) *AnalyticsHandler {
	t.Helper()
	svc := services.NewAnalyticsService(
		&stubProviderSource{err: err},
		nil,
		services.NewMemorySnapshotCache(time.Minute),
		nil,
		config.AnalyticsConfig{
			FailurePolicy: config.FailurePolicyAbort,
			SessionSource: providers.SessionSourceSynthetic,
		},
		zap.NewNop(),
	)
	return NewAnalyticsHandler(svc, zap.NewNop())
}

func getSnapshotResponse(h *AnalyticsHandler, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/stores/:id/analytics", h.GetSnapshot)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGetSnapshotUpstreamErrorBody(t *testing.T) {
	h := newFailingAnalyticsHandler(t, merchantdomain.NewUpstreamError(http.StatusBadGateway, "bad gateway"))
	w := getSnapshotResponse(h, "/stores/"+uuid.NewString()+"/analytics")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeErrorBody(t, w)
	assert.Equal(t, "server", body["kind"])
	assert.Equal(t, float64(http.StatusBadGateway), body["upstream_status"])
	assert.NotEmpty(t, body["message"])
}

func TestGetSnapshotAuthErrorBody(t *testing.T) {
	h := newFailingAnalyticsHandler(t, merchantdomain.NewUpstreamError(http.StatusUnauthorized, "invalid token"))
	w := getSnapshotResponse(h, "/stores/"+uuid.NewString()+"/analytics")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeErrorBody(t, w)
	assert.Equal(t, "auth", body["kind"])
	assert.Equal(t, float64(http.StatusUnauthorized), body["upstream_status"])
}

func TestGetSnapshotRateLimitedBody(t *testing.T) {
	h := newFailingAnalyticsHandler(t, merchantdomain.NewUpstreamError(http.StatusTooManyRequests, "throttled"))
	w := getSnapshotResponse(h, "/stores/"+uuid.NewString()+"/analytics")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeErrorBody(t, w)
	assert.Equal(t, "rate_limit", body["kind"])
	assert.Equal(t, float64(http.StatusTooManyRequests), body["upstream_status"])
}

func TestGetSnapshotUnknownStoreBody(t *testing.T) {
	h := newFailingAnalyticsHandler(t, services.ErrStoreNotFound)
	w := getSnapshotResponse(h, "/stores/"+uuid.NewString()+"/analytics")

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeErrorBody(t, w)
	assert.Equal(t, "not_found", body["kind"])
}

func TestGetSnapshotInternalErrorHidesDetails(t *testing.T) {
	h := newFailingAnalyticsHandler(t, errors.New("pq: connection refused"))
	w := getSnapshotResponse(h, "/stores/"+uuid.NewString()+"/analytics")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeErrorBody(t, w)
	assert.Equal(t, "internal", body["kind"])
	assert.Equal(t, "Failed to build analytics snapshot", body["message"])
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestGetSnapshotInvalidStoreID(t *testing.T) {
	h := newFailingAnalyticsHandler(t, nil)
	w := getSnapshotResponse(h, "/stores/not-a-uuid/analytics")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeErrorBody(t, w)
	assert.Equal(t, "invalid_request", body["kind"])
}
