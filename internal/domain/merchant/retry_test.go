package merchant

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyAttemptBudget(t *testing.T) {
	assert.Equal(t, 1, NoRetryPolicy().MaxAttempts())
	assert.Equal(t, 3, BackoffRetryPolicy(3).MaxAttempts())

	// A nonsensical budget clamps to a single attempt.
	assert.Equal(t, 1, BackoffRetryPolicy(0).MaxAttempts())
	assert.Equal(t, 1, BackoffRetryPolicy(-2).MaxAttempts())
}

func TestNoRetryPolicySingleAttempt(t *testing.T) {
	executor := NewExecutor(NoRetryPolicy())

	calls := 0
	result := executor.Execute(context.Background(), func() error {
		calls++
		return NewUpstreamError(http.StatusServiceUnavailable, "down")
	})

	// Retryable or not, the default policy never retries.
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, result.Attempts)
	assert.Error(t, result.LastError)
}

func TestBackoffRetriesRetryableErrors(t *testing.T) {
	policy := BackoffRetryPolicy(3).WithInitialDelay(time.Millisecond).WithMaxDelay(time.Millisecond)
	executor := NewExecutor(policy)

	calls := 0
	result := executor.Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return NewUpstreamError(http.StatusTooManyRequests, "throttled")
		}
		return nil
	})

	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, result.Attempts)
	assert.NoError(t, result.LastError)
}

func TestBackoffStopsOnNonRetryable(t *testing.T) {
	policy := BackoffRetryPolicy(5).WithInitialDelay(time.Millisecond)
	executor := NewExecutor(policy)

	calls := 0
	result := executor.Execute(context.Background(), func() error {
		calls++
		return NewUpstreamError(http.StatusUnauthorized, "bad token")
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, result.LastError, ErrUnauthorized)
}

func TestBackoffDoesNotRetryPlainErrors(t *testing.T) {
	executor := NewExecutor(BackoffRetryPolicy(3).WithInitialDelay(time.Millisecond))

	calls := 0
	result := executor.Execute(context.Background(), func() error {
		calls++
		return errors.New("connection reset")
	})

	// Only typed retryable API errors are retried.
	assert.Equal(t, 1, calls)
	assert.Error(t, result.LastError)
}

func TestExecuteSuccessClearsLastError(t *testing.T) {
	policy := BackoffRetryPolicy(2).WithInitialDelay(time.Millisecond)
	executor := NewExecutor(policy)

	calls := 0
	result := executor.Execute(context.Background(), func() error {
		calls++
		if calls == 1 {
			return NewUpstreamError(http.StatusBadGateway, "flaky")
		}
		return nil
	})

	require.Equal(t, 2, result.Attempts)
	assert.NoError(t, result.LastError)
}

func TestUpstreamErrorClassification(t *testing.T) {
	assert.Equal(t, KindAuth, NewUpstreamError(http.StatusForbidden, "").Kind)
	assert.Equal(t, KindRateLimit, NewUpstreamError(http.StatusTooManyRequests, "").Kind)
	assert.Equal(t, KindServer, NewUpstreamError(http.StatusInternalServerError, "").Kind)
	assert.Equal(t, KindUpstream, NewUpstreamError(http.StatusConflict, "").Kind)

	assert.False(t, NewUpstreamError(http.StatusNotFound, "").IsRetryable())
	assert.True(t, NewUpstreamError(http.StatusBadGateway, "").IsRetryable())
}
