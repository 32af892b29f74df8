package account

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cometh-hq/safe4337-go/types"
)

// SendUserOperation 构建、签名并提交
//
// bundler 拒绝时返回 SubmissionError；原因为 AA24 时为 InvalidSignature
func (s *safeAccount) SendUserOperation(ctx context.Context, txs []types.TransactionParams) (common.Hash, error) {
	builder, err := s.PrepareUserOperation(ctx, txs)
	if err != nil {
		return common.Hash{}, err
	}

	op, err := s.SignUserOperation(ctx, builder)
	if err != nil {
		return common.Hash{}, err
	}

	hash, err := s.bundler.SendUserOperation(ctx, op)
	if err != nil {
		s.logger.Warn("User operation rejected", "sender", s.address, "error", err)
		return common.Hash{}, err
	}
	return hash, nil
}

// sendCall 以 Safe 身份发起单笔 call
func (s *safeAccount) sendCall(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	return s.SendUserOperation(ctx, []types.TransactionParams{{
		To:    to,
		Value: new(big.Int),
		Data:  data,
	}})
}
