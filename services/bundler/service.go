package bundler

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cometh-hq/safe4337-go/client"
	"github.com/cometh-hq/safe4337-go/types"
)

// Service Bundler JSON-RPC 服务接口
type Service interface {
	// SendUserOperation 提交已签名的 UserOperation，返回 userOpHash
	SendUserOperation(ctx context.Context, op *types.UserOperation) (common.Hash, error)

	// EstimateUserOperationGas 估算 gas（op 需携带占位签名）
	EstimateUserOperationGas(ctx context.Context, op *types.UserOperation) (*types.GasEstimate, error)

	// GetUserOperationReceipt 查询回执，尚未打包时返回 nil
	GetUserOperationReceipt(ctx context.Context, hash common.Hash) (*types.UserOperationReceipt, error)

	// GetUserOperationByHash 按哈希查询，未知时返回 nil
	GetUserOperationByHash(ctx context.Context, hash common.Hash) (*types.UserOperationByHash, error)

	// SupportedEntryPoints 支持的 EntryPoint 列表
	SupportedEntryPoints(ctx context.Context) ([]common.Address, error)

	// EntryPoint 当前使用的 EntryPoint
	EntryPoint() common.Address
}

// invalidSignatureCode EntryPoint 签名校验失败的 revert 码
const invalidSignatureCode = "AA24"

// bundlerService Bundler 服务实现
type bundlerService struct {
	client     client.Client
	entryPoint common.Address
	logger     client.Logger
}

// NewService 创建 Bundler 服务
func NewService(cli client.Client, entryPoint common.Address) Service {
	return NewServiceWithLogger(cli, entryPoint, client.DefaultLogger())
}

// NewServiceWithLogger 创建带日志器的 Bundler 服务
func NewServiceWithLogger(cli client.Client, entryPoint common.Address, logger client.Logger) Service {
	if logger == nil {
		logger = client.DefaultLogger()
	}
	return &bundlerService{
		client:     cli,
		entryPoint: entryPoint,
		logger:     logger,
	}
}

func (s *bundlerService) EntryPoint() common.Address {
	return s.entryPoint
}

func (s *bundlerService) SendUserOperation(ctx context.Context, op *types.UserOperation) (common.Hash, error) {
	var hash common.Hash
	err := s.client.Call(ctx, &hash, "eth_sendUserOperation", op, s.entryPoint)
	if err != nil {
		rpcErr, ok := client.AsRPCError(err)
		if !ok {
			return common.Hash{}, err
		}
		if strings.Contains(rpcErr.Message, invalidSignatureCode) {
			return common.Hash{}, types.NewInvalidSignatureError(rpcErr.Code, err, "invalid signature: "+rpcErr.Message)
		}
		return common.Hash{}, types.NewSubmissionError(rpcErr.Code, err, "bundler cannot send user operation: "+rpcErr.Message)
	}
	s.logger.Info("User operation submitted", "sender", op.Sender, "userOpHash", hash)
	return hash, nil
}

// gasEstimateResult eth_estimateUserOperationGas 结果
type gasEstimateResult struct {
	PreVerificationGas   *types.Quantity `json:"preVerificationGas"`
	VerificationGasLimit *types.Quantity `json:"verificationGasLimit"`
	CallGasLimit         *types.Quantity `json:"callGasLimit"`
}

func (s *bundlerService) EstimateUserOperationGas(ctx context.Context, op *types.UserOperation) (*types.GasEstimate, error) {
	var result gasEstimateResult
	if err := s.client.Call(ctx, &result, "eth_estimateUserOperationGas", op, s.entryPoint); err != nil {
		if rpcErr, ok := client.AsRPCError(err); ok {
			return nil, types.NewGasEstimationError(rpcErr.Code, err, "bundler cannot estimate user operation gas: "+rpcErr.Message)
		}
		return nil, err
	}
	if result.PreVerificationGas == nil || result.VerificationGasLimit == nil || result.CallGasLimit == nil {
		return nil, types.NewGasEstimationError(0, errors.New("missing field"), "incomplete gas estimate")
	}
	return &types.GasEstimate{
		PreVerificationGas:   result.PreVerificationGas.ToInt(),
		VerificationGasLimit: result.VerificationGasLimit.ToInt(),
		CallGasLimit:         result.CallGasLimit.ToInt(),
	}, nil
}

func (s *bundlerService) GetUserOperationReceipt(ctx context.Context, hash common.Hash) (*types.UserOperationReceipt, error) {
	var receipt *types.UserOperationReceipt
	if err := s.client.Call(ctx, &receipt, "eth_getUserOperationReceipt", hash); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *bundlerService) GetUserOperationByHash(ctx context.Context, hash common.Hash) (*types.UserOperationByHash, error) {
	var result *types.UserOperationByHash
	if err := s.client.Call(ctx, &result, "eth_getUserOperationByHash", hash); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *bundlerService) SupportedEntryPoints(ctx context.Context) ([]common.Address, error) {
	var entryPoints []common.Address
	if err := s.client.Call(ctx, &entryPoints, "eth_supportedEntryPoints"); err != nil {
		return nil, err
	}
	return entryPoints, nil
}
