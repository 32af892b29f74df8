package account

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cometh-hq/safe4337-go/safe"
	"github.com/cometh-hq/safe4337-go/types"
	"github.com/cometh-hq/safe4337-go/wallet"
)

func (s *safeAccount) GetOwners(ctx context.Context) ([]common.Address, error) {
	return safe.GetOwners(ctx, s.reader, s.address)
}

func (s *safeAccount) AddOwner(ctx context.Context, owner common.Address) (common.Hash, error) {
	data, err := safe.AddOwnerWithThresholdData(owner, big.NewInt(1))
	if err != nil {
		return common.Hash{}, err
	}
	return s.sendCall(ctx, s.address, data)
}

// DeployAndEnablePasskeySigner 一次 UserOperation 内完成：
//  1. SafeWebAuthnSignerFactory.createSigner(x, y, verifiers)
//  2. Safe.addOwnerWithThreshold(signer, 1)
func (s *safeAccount) DeployAndEnablePasskeySigner(ctx context.Context, passkey wallet.Passkey) (common.Hash, error) {
	if passkey.X == nil || passkey.Y == nil {
		return common.Hash{}, types.NewStructuralError("passkey coordinates must be set")
	}
	verifiers := passkey.Verifiers(s.config)

	signer, err := safe.GetWebAuthnSigner(ctx, s.reader, s.config.SafeWebAuthnSignerFactory, passkey.X, passkey.Y, verifiers)
	if err != nil {
		return common.Hash{}, err
	}

	createSigner, err := safe.CreateSignerData(passkey.X, passkey.Y, verifiers)
	if err != nil {
		return common.Hash{}, err
	}
	addOwner, err := safe.AddOwnerWithThresholdData(signer, big.NewInt(1))
	if err != nil {
		return common.Hash{}, err
	}

	s.logger.Info("Enabling passkey signer", "safe", s.address, "signer", signer)
	return s.SendUserOperation(ctx, []types.TransactionParams{
		{To: s.config.SafeWebAuthnSignerFactory, Data: createSigner},
		{To: s.address, Data: addOwner},
	})
}
