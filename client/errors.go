package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error 传输层错误
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("client error [%d]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("client error [%d]: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// 错误码定义
const (
	ErrCodeNetwork         = 1000 // 网络错误
	ErrCodeTimeout         = 1001 // 超时错误
	ErrCodeInvalidResponse = 1002 // 无效响应
	ErrCodeHTTPStatus      = 1003 // 非 200 HTTP 状态
	ErrCodeClosed          = 1004 // 连接已关闭
)

// NewNetworkError 创建网络错误
func NewNetworkError(err error) *Error {
	return &Error{
		Code:    ErrCodeNetwork,
		Message: "network error",
		Err:     err,
	}
}

// NewTimeoutError 创建超时错误
func NewTimeoutError() *Error {
	return &Error{
		Code:    ErrCodeTimeout,
		Message: "request timeout",
	}
}

// NewInvalidResponseError 创建无效响应错误
func NewInvalidResponseError(message string) *Error {
	return &Error{
		Code:    ErrCodeInvalidResponse,
		Message: message,
	}
}

// NewHTTPStatusError 创建 HTTP 状态错误
func NewHTTPStatusError(status int, body string) *Error {
	return &Error{
		Code:    ErrCodeHTTPStatus,
		Message: fmt.Sprintf("HTTP error: %d, body: %s", status, body),
	}
}

// NewClosedError 创建连接关闭错误
func NewClosedError(err error) *Error {
	return &Error{
		Code:    ErrCodeClosed,
		Message: "connection closed",
		Err:     err,
	}
}

// RPCError JSON-RPC 错误对象
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("RPC error [%d]: %s, data: %s", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("RPC error [%d]: %s", e.Code, e.Message)
}

// AsRPCError 提取 JSON-RPC 错误
func AsRPCError(err error) (*RPCError, bool) {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr, true
	}
	return nil, false
}
