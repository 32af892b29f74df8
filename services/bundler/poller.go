package bundler

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cometh-hq/safe4337-go/types"
	"github.com/cometh-hq/safe4337-go/utils"
)

// PollerConfig 回执轮询配置
type PollerConfig struct {
	// Interval 轮询间隔
	Interval time.Duration
	// Timeout 等待上限
	Timeout time.Duration
}

// DefaultPollerConfig 每秒一次，最多 30 秒
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval: time.Second,
		Timeout:  30 * time.Second,
	}
}

// ReceiptPoller 轮询 UserOperation 回执
type ReceiptPoller struct {
	service Service
	config  PollerConfig
}

// NewReceiptPoller 创建轮询器，非正值字段取默认
func NewReceiptPoller(service Service, config PollerConfig) *ReceiptPoller {
	def := DefaultPollerConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	return &ReceiptPoller{service: service, config: config}
}

// WaitForReceipt 等待回执
//
// 超时返回 (nil, nil)，不取消已提交的操作；ctx 取消时返回 ctx.Err()
func (p *ReceiptPoller) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.UserOperationReceipt, error) {
	deadline := time.NewTimer(p.config.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		receipt, err := p.service.GetUserOperationReceipt(ctx, hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, nil
		case <-ticker.C:
		}
	}
}

// GetUserOperationReceipts 并发查询多个回执，结果与 hashes 一一对应（未打包为 nil）
func GetUserOperationReceipts(ctx context.Context, service Service, hashes []common.Hash, concurrency int) ([]*types.UserOperationReceipt, error) {
	return utils.ParallelExecute(ctx, hashes, func(ctx context.Context, hash common.Hash) (*types.UserOperationReceipt, error) {
		return service.GetUserOperationReceipt(ctx, hash)
	}, concurrency)
}
