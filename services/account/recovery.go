package account

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cometh-hq/safe4337-go/safe"
	"github.com/cometh-hq/safe4337-go/types"
)

func (s *safeAccount) PredictDelayModuleAddress(config safe.RecoveryModuleConfig) (common.Address, error) {
	if err := config.Validate(); err != nil {
		return common.Address{}, err
	}
	return safe.PredictDelayModuleAddress(s.address, config)
}

// EnableRecovery 一次 MultiSend 完成：
//  1. ModuleProxyFactory.deployModule(delay, setUp, saltNonce=safe)
//  2. Safe.enableModule(delay)
//  3. Delay.enableModule(guardian)
func (s *safeAccount) EnableRecovery(ctx context.Context, guardian common.Address, config safe.RecoveryModuleConfig) (common.Hash, error) {
	delay, err := s.PredictDelayModuleAddress(config)
	if err != nil {
		return common.Hash{}, err
	}
	deployed, err := safe.IsDeployed(ctx, s.reader, delay)
	if err != nil {
		return common.Hash{}, err
	}
	if deployed {
		return common.Hash{}, types.NewRecoveryStateError("recovery module already enabled at %s", delay.Hex())
	}

	setUp, err := safe.DelaySetUpData(config, s.address)
	if err != nil {
		return common.Hash{}, err
	}
	deployModule, err := safe.DeployModuleData(config.DelayModule, setUp, safe.SaltNonceForSafe(s.address))
	if err != nil {
		return common.Hash{}, err
	}
	enableDelay, err := safe.EnableModuleData(delay)
	if err != nil {
		return common.Hash{}, err
	}
	enableGuardian, err := safe.DelayEnableModuleData(guardian)
	if err != nil {
		return common.Hash{}, err
	}

	s.logger.Info("Enabling recovery module", "safe", s.address, "delay", delay, "guardian", guardian)
	return s.SendUserOperation(ctx, []types.TransactionParams{
		{To: config.ModuleFactory, Value: new(big.Int), Data: deployModule},
		{To: s.address, Value: new(big.Int), Data: enableDelay},
		{To: delay, Value: new(big.Int), Data: enableGuardian},
	})
}

func (s *safeAccount) GetCurrentGuardian(ctx context.Context, delay common.Address) (*common.Address, error) {
	modules, err := safe.DelayModules(ctx, s.reader, delay)
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return nil, nil
	}
	guardian := modules[0]
	return &guardian, nil
}

func (s *safeAccount) IsRecoveryStarted(ctx context.Context, delay common.Address) (bool, error) {
	txNonce, err := safe.DelayTxNonce(ctx, s.reader, delay)
	if err != nil {
		return false, err
	}
	queueNonce, err := safe.DelayQueueNonce(ctx, s.reader, delay)
	if err != nil {
		return false, err
	}
	return queueNonce.Cmp(txNonce) > 0, nil
}

func (s *safeAccount) RecoveryState(ctx context.Context, delay common.Address) (*safe.RecoveryModuleState, error) {
	return safe.ReadRecoveryState(ctx, s.reader, delay)
}

// CancelRecovery 将 txNonce 推进到 queueNonce，使所有排队交易失效
func (s *safeAccount) CancelRecovery(ctx context.Context, delay common.Address) (common.Hash, error) {
	state, err := s.RecoveryState(ctx, delay)
	if err != nil {
		return common.Hash{}, err
	}
	switch state.Status {
	case safe.RecoveryNotDeployed:
		return common.Hash{}, types.NewRecoveryStateError("delay module not deployed at %s", delay.Hex())
	case safe.RecoveryQueued:
	default:
		return common.Hash{}, types.NewRecoveryStateError("no recovery started")
	}

	data, err := safe.SetTxNonceData(state.QueueNonce)
	if err != nil {
		return common.Hash{}, err
	}
	s.logger.Info("Cancelling recovery", "safe", s.address, "delay", delay, "txNonce", state.QueueNonce)
	return s.sendCall(ctx, delay, data)
}
