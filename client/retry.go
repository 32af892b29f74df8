package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"time"
)

// RetryConfig 重试配置
type RetryConfig struct {
	// MaxRetries 最大重试次数
	MaxRetries int
	// InitialDelay 初始延迟（毫秒）
	InitialDelay int
	// MaxDelay 最大延迟（毫秒）
	MaxDelay int
	// BackoffMultiplier 退避倍数
	BackoffMultiplier float64
	// Retryable 判断错误是否可重试
	Retryable func(error) bool
	// OnRetry 重试前回调
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig 返回默认重试配置
//
// 传输层默认不重试，需显式设置 Config.Retry
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialDelay:      1000,
		MaxDelay:          10000,
		BackoffMultiplier: 2.0,
		Retryable:         isRetryableError,
	}
}

var retryableMessages = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"timeout",
}

// isRetryableError 判断错误是否可重试
//
// JSON-RPC 错误对象永远不重试：bundler 拒绝是确定性的
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return false
	}

	var cliErr *Error
	if errors.As(err, &cliErr) && cliErr.Code == ErrCodeHTTPStatus {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	msg := err.Error()
	for _, s := range retryableMessages {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// isRetryableHTTPError 5xx 与 429 可重试
func isRetryableHTTPError(statusCode int) bool {
	return statusCode == 429 || (statusCode >= 500 && statusCode < 600)
}

// calculateBackoffDelay 计算第 attempt 次重试前的退避延迟
func calculateBackoffDelay(attempt int, config *RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiplier, float64(attempt))
	if maxDelay := float64(config.MaxDelay); delay > maxDelay {
		delay = maxDelay
	}
	return time.Duration(delay) * time.Millisecond
}

// withRetry 带重试的执行器，config 为 nil 时只执行一次
func withRetry(ctx context.Context, fn func() error, config *RetryConfig) error {
	if config == nil {
		return fn()
	}

	retryable := config.Retryable
	if retryable == nil {
		retryable = isRetryableError
	}

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= config.MaxRetries || !retryable(err) {
			break
		}

		if config.OnRetry != nil {
			config.OnRetry(attempt+1, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(calculateBackoffDelay(attempt, config)):
		}
	}

	if config.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("retry failed after %d attempts: %w", config.MaxRetries+1, lastErr)
}
