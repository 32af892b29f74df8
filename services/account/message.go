package account

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cometh-hq/safe4337-go/safe"
	"github.com/cometh-hq/safe4337-go/types"
)

// SignMessage 对 SafeMessage(bytes message) 的 EIP-712 哈希签名
func (s *safeAccount) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	hash, err := safe.SafeMessageHash(s.chainID, s.address, message)
	if err != nil {
		return nil, err
	}
	signature, err := s.signer.Sign(ctx, hash)
	if err != nil {
		return nil, asSignerError(err, "sign message")
	}
	return signature, nil
}

func (s *safeAccount) IsValidSignature(ctx context.Context, message, signature []byte) (bool, error) {
	if len(message) > common.HashLength {
		return false, types.NewStructuralError("message must be at most %d bytes, got %d", common.HashLength, len(message))
	}
	return safe.IsValidSignature(ctx, s.reader, s.address, message, signature)
}
