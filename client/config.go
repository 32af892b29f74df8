package client

import (
	"github.com/ethereum/go-ethereum/log"
)

// Config 客户端配置
type Config struct {
	// Endpoint 端点地址（bundler、paymaster 或节点 RPC）
	Endpoint string

	// Protocol 协议类型
	Protocol Protocol

	// Timeout 超时时间（秒，0 表示不设内部超时，由调用方 ctx 控制）
	Timeout int

	// Headers 附加请求头（如 API key）
	Headers map[string]string

	// TLS 配置
	TLS *TLSConfig

	// 调试模式，打印请求与响应
	Debug bool

	// 日志器（可选，默认 go-ethereum 根日志器）
	Logger Logger

	// Retry 重试配置（nil 表示不重试）
	Retry *RetryConfig
}

// Protocol 协议类型
type Protocol string

const (
	ProtocolHTTP      Protocol = "http"
	ProtocolWebSocket Protocol = "websocket"
)

// TLSConfig TLS 配置
type TLSConfig struct {
	Insecure bool // 跳过 TLS 验证（仅用于开发）
}

// Logger 日志接口，键值对参数（log.Root() 满足该接口）
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// DefaultLogger 返回 go-ethereum 根日志器
func DefaultLogger() Logger {
	return log.Root()
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Endpoint: "http://localhost:8545",
		Protocol: ProtocolHTTP,
		Timeout:  30,
		Debug:    false,
	}
}

func (c *Config) logger() Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return DefaultLogger()
}
