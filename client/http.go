package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// httpClient HTTP 客户端实现
type httpClient struct {
	endpoint string
	client   *http.Client
	headers  map[string]string
	logger   Logger
	debug    bool
	nextID   atomic.Uint64
	retry    *RetryConfig
}

// NewHTTPClient 创建 HTTP 客户端
func NewHTTPClient(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Endpoint == "" {
		return nil, fmt.Errorf("empty endpoint")
	}

	httpCli := &http.Client{
		Timeout: time.Duration(config.Timeout) * time.Second,
	}
	if config.TLS != nil && config.TLS.Insecure {
		httpCli.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		}
	}

	logger := config.logger()
	retryConfig := config.Retry
	if retryConfig != nil && retryConfig.OnRetry == nil && config.Debug {
		cp := *retryConfig
		cp.OnRetry = func(attempt int, err error) {
			logger.Warn("Retrying request", "attempt", attempt, "error", err)
		}
		retryConfig = &cp
	}

	return &httpClient{
		endpoint: config.Endpoint,
		client:   httpCli,
		headers:  config.Headers,
		logger:   logger,
		debug:    config.Debug,
		retry:    retryConfig,
	}, nil
}

// Call 调用 JSON-RPC 方法
func (c *httpClient) Call(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	req := newRequest(c.nextID.Add(1), method, params)

	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request failed: %w", err)
	}

	if c.debug {
		c.logger.Debug("JSON-RPC request", "method", method, "body", string(reqBody))
	}

	var (
		status   int
		respBody []byte
	)
	// 每次尝试都重新构造请求（Body 只能读取一次）
	send := func() error {
		status, respBody, err = c.post(ctx, reqBody)
		if err != nil {
			return err
		}
		// 带 JSON-RPC 错误体的响应不重试
		if isRetryableHTTPError(status) && rpcErrorFromBody(respBody) == nil {
			return NewHTTPStatusError(status, string(respBody))
		}
		return nil
	}
	if err := withRetry(ctx, send, c.retry); err != nil {
		return err
	}

	if c.debug {
		c.logger.Debug("JSON-RPC response", "method", method, "status", status, "body", string(respBody))
	}

	if status != http.StatusOK {
		if rpcErr := rpcErrorFromBody(respBody); rpcErr != nil {
			return rpcErr
		}
		return NewHTTPStatusError(status, string(respBody))
	}

	var jsonResp jsonRPCResponse
	if err := json.Unmarshal(respBody, &jsonResp); err != nil {
		return NewInvalidResponseError(fmt.Sprintf("unmarshal response failed: %v", err))
	}
	return decodeResult(&jsonResp, result)
}

// rpcErrorFromBody 从非 200 响应体中提取 JSON-RPC 错误对象
func rpcErrorFromBody(body []byte) *RPCError {
	var resp jsonRPCResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil
	}
	return resp.Error
}

func (c *httpClient) post(ctx context.Context, body []byte) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		return 0, nil, NewNetworkError(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, NewNetworkError(fmt.Errorf("read response failed: %w", err))
	}
	return resp.StatusCode, respBody, nil
}

// Close 关闭空闲连接
func (c *httpClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
