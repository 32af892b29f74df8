package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rpc error", err: &RPCError{Code: -32500, Message: "timeout"}, want: false},
		{name: "http status", err: NewHTTPStatusError(502, ""), want: true},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "other", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestCalculateBackoffDelay(t *testing.T) {
	cfg := &RetryConfig{InitialDelay: 100, MaxDelay: 500, BackoffMultiplier: 2}
	assert.Equal(t, 100*time.Millisecond, calculateBackoffDelay(0, cfg))
	assert.Equal(t, 200*time.Millisecond, calculateBackoffDelay(1, cfg))
	assert.Equal(t, 400*time.Millisecond, calculateBackoffDelay(2, cfg))
	assert.Equal(t, 500*time.Millisecond, calculateBackoffDelay(3, cfg))
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, func() error {
		return NewHTTPStatusError(503, "")
	}, &RetryConfig{MaxRetries: 3, InitialDelay: 1000, MaxDelay: 1000, BackoffMultiplier: 1})
	assert.ErrorIs(t, err, context.Canceled)
}
