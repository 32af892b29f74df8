package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// Client JSON-RPC 客户端接口（bundler、paymaster 与节点共用）
type Client interface {
	// Call 调用 JSON-RPC 方法，结果解码到 result（可为 nil）
	Call(ctx context.Context, result interface{}, method string, params ...interface{}) error

	// Close 关闭连接
	Close() error
}

// NewClient 按协议创建客户端
func NewClient(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Protocol {
	case ProtocolHTTP, "":
		return NewHTTPClient(config)
	case ProtocolWebSocket:
		return NewWebSocketClient(config)
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", config.Protocol)
	}
}

// jsonRPCRequest JSON-RPC 请求
type jsonRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

// jsonRPCResponse JSON-RPC 响应
type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      uint64          `json:"id"`
}

func newRequest(id uint64, method string, params []interface{}) *jsonRPCRequest {
	if params == nil {
		params = []interface{}{}
	}
	return &jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      id,
	}
}

// decodeResult 处理 JSON-RPC 错误并解码结果
func decodeResult(resp *jsonRPCResponse, result interface{}) error {
	if resp.Error != nil {
		return resp.Error
	}
	if result == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return NewInvalidResponseError(fmt.Sprintf("decode result: %v", err))
	}
	return nil
}
