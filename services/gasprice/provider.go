package gasprice

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"

	"github.com/cometh-hq/safe4337-go/types"
)

// Provider UserOperation 费用来源
type Provider interface {
	GasPrice(ctx context.Context) (*types.GasPrice, error)
}

// FeeHistoryReader eth_feeHistory 读取接口（*ethclient.Client 满足该接口）
type FeeHistoryReader interface {
	FeeHistory(ctx context.Context, blockCount uint64, lastBlock *big.Int, rewardPercentiles []float64) (*ethereum.FeeHistory, error)
}

// Config 费用估算参数
type Config struct {
	// BlockCount 采样区块数
	BlockCount uint64
	// RewardPercentile 小费分位
	RewardPercentile float64
	// BaseFeeMultiplier 基础费乘数（百分比）
	BaseFeeMultiplier int64
	// PriorityFeeMultiplier 小费乘数（百分比）
	PriorityFeeMultiplier int64
}

// DefaultConfig 最近 5 块、40 分位，基础费 ×2，小费 ×1.2
func DefaultConfig() Config {
	return Config{
		BlockCount:            5,
		RewardPercentile:      40,
		BaseFeeMultiplier:     200,
		PriorityFeeMultiplier: 120,
	}
}

// RPCGasEstimator 基于 eth_feeHistory 的费用估算
type RPCGasEstimator struct {
	reader FeeHistoryReader
	config Config
}

// NewRPCGasEstimator 创建估算器
func NewRPCGasEstimator(reader FeeHistoryReader, config Config) *RPCGasEstimator {
	def := DefaultConfig()
	if config.BlockCount == 0 {
		config.BlockCount = def.BlockCount
	}
	if config.RewardPercentile == 0 {
		config.RewardPercentile = def.RewardPercentile
	}
	if config.BaseFeeMultiplier <= 0 {
		config.BaseFeeMultiplier = def.BaseFeeMultiplier
	}
	if config.PriorityFeeMultiplier <= 0 {
		config.PriorityFeeMultiplier = def.PriorityFeeMultiplier
	}
	return &RPCGasEstimator{reader: reader, config: config}
}

// GasPrice 计算费用
//
// maxPriorityFeePerGas = mean(各块首个 reward) × priorityMultiplier / 100
// maxFeePerGas = 最新 baseFee × baseFeeMultiplier / 100 + maxPriorityFeePerGas
func (e *RPCGasEstimator) GasPrice(ctx context.Context) (*types.GasPrice, error) {
	history, err := e.reader.FeeHistory(ctx, e.config.BlockCount, nil, []float64{e.config.RewardPercentile})
	if err != nil {
		return nil, types.NewGasEstimationError(0, err, "fee history unavailable")
	}
	if history == nil || len(history.BaseFee) == 0 {
		return nil, types.NewGasEstimationError(0, errors.New("empty base fee"), "fee history has no base fee")
	}

	sum := new(big.Int)
	count := int64(0)
	for _, rewards := range history.Reward {
		if len(rewards) == 0 || rewards[0] == nil {
			continue
		}
		sum.Add(sum, rewards[0])
		count++
	}
	if count == 0 {
		return nil, types.NewGasEstimationError(0, errors.New("empty reward"), "fee history has no priority fee")
	}

	hundred := big.NewInt(100)
	priority := new(big.Int).Div(sum, big.NewInt(count))
	priority.Mul(priority, big.NewInt(e.config.PriorityFeeMultiplier)).Div(priority, hundred)

	latestBaseFee := history.BaseFee[len(history.BaseFee)-1]
	maxFee := new(big.Int).Mul(latestBaseFee, big.NewInt(e.config.BaseFeeMultiplier))
	maxFee.Div(maxFee, hundred).Add(maxFee, priority)

	return &types.GasPrice{
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: priority,
	}, nil
}

// StaticProvider 固定费用
type StaticProvider types.GasPrice

// GasPrice 返回固定费用的副本
func (p StaticProvider) GasPrice(context.Context) (*types.GasPrice, error) {
	if p.MaxFeePerGas == nil || p.MaxPriorityFeePerGas == nil {
		return nil, types.NewGasEstimationError(0, errors.New("unset"), "static gas price not configured")
	}
	return &types.GasPrice{
		MaxFeePerGas:         new(big.Int).Set(p.MaxFeePerGas),
		MaxPriorityFeePerGas: new(big.Int).Set(p.MaxPriorityFeePerGas),
	}, nil
}
