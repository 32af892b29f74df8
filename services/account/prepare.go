package account

import (
	"context"

	"github.com/cometh-hq/safe4337-go/safe"
	"github.com/cometh-hq/safe4337-go/types"
)

// validAfter / validUntil 固定为 0（不限时）
const (
	defaultValidAfter = 0
	defaultValidUntil = 0
)

// PrepareUserOperation 构建 UserOperation
//
// 步骤：
//  1. 检查部署状态，未部署时附带 factory/factoryData
//  2. 从 EntryPoint 读取 nonce
//  3. 编码 callData（单笔直接调用，多笔经 MultiSend）
//  4. 写入费用
//  5. 以占位签名估算 gas
//  6. 配置了 paymaster 时以占位签名请求赞助
//
// 返回的构建器处于 GasEstimated 或 Sponsored 阶段，且不含签名
func (s *safeAccount) PrepareUserOperation(ctx context.Context, txs []types.TransactionParams) (*types.UserOperationBuilder, error) {
	deployed, err := s.IsDeployed(ctx)
	if err != nil {
		return nil, err
	}

	nonce, err := s.GetNonce(ctx)
	if err != nil {
		return nil, err
	}

	callData, err := safe.BatchCallData(txs, s.config)
	if err != nil {
		return nil, err
	}

	builder := types.NewUserOperationBuilder(s.address, nonce, callData)
	if !deployed {
		factoryData, err := s.FactoryData()
		if err != nil {
			return nil, err
		}
		if err := builder.WithFactory(s.FactoryAddress(), factoryData); err != nil {
			return nil, err
		}
	}
	s.logger.Debug("Preparing user operation", "sender", s.address, "nonce", nonce, "deployed", deployed, "calls", len(txs))

	price, err := s.gasPrice.GasPrice(ctx)
	if err != nil {
		return nil, err
	}
	if err := builder.WithFees(price); err != nil {
		return nil, err
	}

	dummy, err := s.signer.DummySignature()
	if err != nil {
		return nil, asSignerError(err, "dummy signature")
	}

	estimate, err := s.bundler.EstimateUserOperationGas(ctx, builder.Draft(dummy))
	if err != nil {
		return nil, err
	}
	if err := builder.WithGasEstimate(estimate); err != nil {
		return nil, err
	}
	s.logger.Debug("Gas estimated",
		"preVerificationGas", estimate.PreVerificationGas,
		"verificationGasLimit", estimate.VerificationGasLimit,
		"callGasLimit", estimate.CallGasLimit)

	if s.paymaster == nil {
		return builder, nil
	}

	sponsorship, err := s.paymaster.SponsorUserOperation(ctx, builder.Draft(dummy))
	if err != nil {
		return nil, err
	}
	if err := builder.WithSponsorship(sponsorship); err != nil {
		return nil, err
	}
	s.logger.Debug("User operation sponsored", "paymaster", sponsorship.Paymaster)

	return builder, nil
}

// SignUserOperation 计算 SafeOp 哈希并签名，返回可提交的 UserOperation
func (s *safeAccount) SignUserOperation(ctx context.Context, builder *types.UserOperationBuilder) (*types.UserOperation, error) {
	if builder == nil {
		return nil, types.NewStructuralError("nil builder")
	}
	hash, err := safe.SafeOperationHash(s.chainID, s.config, builder.Operation(), defaultValidAfter, defaultValidUntil)
	if err != nil {
		return nil, err
	}

	signature, err := s.signer.Sign(ctx, hash)
	if err != nil {
		return nil, asSignerError(err, "sign user operation")
	}

	packed, err := safe.PackSafeOpSignature(defaultValidAfter, defaultValidUntil, signature)
	if err != nil {
		return nil, err
	}
	return builder.Sign(packed)
}

// asSignerError 非 SDK 错误统一包装为签名器错误
func asSignerError(err error, message string) error {
	if _, ok := types.AsError(err); ok {
		return err
	}
	return types.NewSignerError(err, "%s", message)
}
