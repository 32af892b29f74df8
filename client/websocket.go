package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// websocketClient WebSocket 客户端实现
type websocketClient struct {
	endpoint string
	conn     *websocket.Conn
	logger   Logger
	debug    bool
	timeout  time.Duration
	writeMu  sync.Mutex
	closed   atomic.Bool
	nextID   atomic.Uint64
	requests map[uint64]chan *jsonRPCResponse
	muReq    sync.Mutex
}

// NewWebSocketClient 创建 WebSocket 客户端
func NewWebSocketClient(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	endpoint := websocketEndpoint(config.Endpoint)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	header := http.Header{}
	for k, v := range config.Headers {
		header.Set(k, v)
	}

	conn, _, err := dialer.Dial(endpoint, header)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("dial websocket: %w", err))
	}

	c := &websocketClient{
		endpoint: endpoint,
		conn:     conn,
		logger:   config.logger(),
		debug:    config.Debug,
		timeout:  time.Duration(config.Timeout) * time.Second,
		requests: make(map[uint64]chan *jsonRPCResponse),
	}

	go c.readLoop()

	return c, nil
}

// websocketEndpoint 将 http(s):// 转换为 ws(s)://
func websocketEndpoint(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "ws://"), strings.HasPrefix(endpoint, "wss://"):
		return endpoint
	default:
		return "ws://" + endpoint
	}
}

// readLoop 消息读取循环，按 id 分发响应
func (c *websocketClient) readLoop() {
	defer func() {
		c.muReq.Lock()
		c.closed.Store(true)
		for id, ch := range c.requests {
			close(ch)
			delete(c.requests, id)
		}
		c.muReq.Unlock()
	}()

	for {
		var resp jsonRPCResponse
		if err := c.conn.ReadJSON(&resp); err != nil {
			if !c.closed.Load() {
				c.logger.Warn("WebSocket read failed", "endpoint", c.endpoint, "error", err)
			}
			return
		}

		if c.debug {
			c.logger.Debug("JSON-RPC response", "id", resp.ID, "result", string(resp.Result))
		}

		c.muReq.Lock()
		ch, exists := c.requests[resp.ID]
		if exists {
			delete(c.requests, resp.ID)
		}
		c.muReq.Unlock()

		if exists {
			r := resp
			ch <- &r
		}
	}
}

// Call 调用 JSON-RPC 方法
func (c *websocketClient) Call(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	req := newRequest(c.nextID.Add(1), method, params)

	// 缓冲为 1，readLoop 投递不阻塞
	respCh := make(chan *jsonRPCResponse, 1)
	// closed 与登记在同一把锁下判断，readLoop 清理后不再接受新请求
	c.muReq.Lock()
	if c.closed.Load() {
		c.muReq.Unlock()
		return NewClosedError(nil)
	}
	c.requests[req.ID] = respCh
	c.muReq.Unlock()

	if c.debug {
		c.logger.Debug("JSON-RPC request", "id", req.ID, "method", method)
	}

	// gorilla 连接只允许单个并发写
	c.writeMu.Lock()
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(req.ID)
		return NewNetworkError(fmt.Errorf("write request: %w", err))
	}

	// 未配置超时时只由 ctx 控制
	var timeoutCh <-chan time.Time
	if c.timeout > 0 {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case resp, ok := <-respCh:
		if !ok || resp == nil {
			return NewClosedError(nil)
		}
		return decodeResult(resp, result)

	case <-ctx.Done():
		c.forget(req.ID)
		return ctx.Err()

	case <-timeoutCh:
		c.forget(req.ID)
		return NewTimeoutError()
	}
}

func (c *websocketClient) forget(id uint64) {
	c.muReq.Lock()
	delete(c.requests, id)
	c.muReq.Unlock()
}

// Close 关闭连接
func (c *websocketClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
