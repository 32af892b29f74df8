package safe

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/cometh-hq/safe4337-go/utils"
)

var (
	// 最小代理（EIP-1167 变体）创建码的前后缀，中间插入 mastercopy 地址
	moduleProxyPrefix = common.FromHex("0x602d8060093d393df3363d3d373d3d3d363d73")
	moduleProxySuffix = common.FromHex("0x5af43d82803e903d91602b57fd5bf3")

	// sentinelModules 模块链表哨兵
	sentinelModules = common.HexToAddress("0x0000000000000000000000000000000000000001")
)

// modulesPageSize getModulesPaginated 单页大小
const modulesPageSize = 1000

// RecoveryStatus 恢复模块状态
type RecoveryStatus int

const (
	RecoveryNotDeployed RecoveryStatus = iota
	RecoveryEnabled
	RecoveryQueued
)

func (s RecoveryStatus) String() string {
	switch s {
	case RecoveryNotDeployed:
		return "not-deployed"
	case RecoveryEnabled:
		return "enabled"
	case RecoveryQueued:
		return "queued"
	default:
		return "unknown"
	}
}

// RecoveryModuleState 由链上读取推导的恢复模块状态
type RecoveryModuleState struct {
	Status     RecoveryStatus
	Guardian   *common.Address
	TxNonce    *big.Int
	QueueNonce *big.Int
}

// DelaySetUpData Delay.setUp(abi.encode(owner, avatar, target, cooldown, expiration))，三个地址均为 Safe
func DelaySetUpData(config RecoveryModuleConfig, safe common.Address) ([]byte, error) {
	params, err := utils.EncodeArguments(
		[]string{"address", "address", "address", "uint256", "uint256"},
		safe, safe, safe, config.cooldown(), config.expiration(),
	)
	if err != nil {
		return nil, err
	}
	return pack(delayABI, "setUp", params)
}

// DeployModuleData ModuleProxyFactory.deployModule(masterCopy, initializer, saltNonce)
func DeployModuleData(masterCopy common.Address, initializer []byte, saltNonce *big.Int) ([]byte, error) {
	return pack(moduleFactoryABI, "deployModule", masterCopy, initializer, saltNonce)
}

// DelayEnableModuleData Delay.enableModule(module)
func DelayEnableModuleData(module common.Address) ([]byte, error) {
	return pack(delayABI, "enableModule", module)
}

// SetTxNonceData Delay.setTxNonce(nonce)，跳过所有 nonce 之前的排队交易
func SetTxNonceData(nonce *big.Int) ([]byte, error) {
	return pack(delayABI, "setTxNonce", nonce)
}

// SaltNonceForSafe 以 Safe 地址作为 deployModule 的 saltNonce
func SaltNonceForSafe(safe common.Address) *big.Int {
	return new(big.Int).SetBytes(safe.Bytes())
}

// PredictDelayModuleAddress 预测某个 Safe 的 Delay 模块代理地址
//
//  1. initCode = prefix ++ delayModule ++ suffix
//  2. salt = keccak(keccak(setUp 调用数据) ++ pad32(safe))
//  3. CREATE2(moduleFactory, salt, keccak(initCode))
func PredictDelayModuleAddress(safe common.Address, config RecoveryModuleConfig) (common.Address, error) {
	initializer, err := DelaySetUpData(config, safe)
	if err != nil {
		return common.Address{}, err
	}
	initCode := make([]byte, 0, len(moduleProxyPrefix)+common.AddressLength+len(moduleProxySuffix))
	initCode = append(initCode, moduleProxyPrefix...)
	initCode = append(initCode, config.DelayModule.Bytes()...)
	initCode = append(initCode, moduleProxySuffix...)

	packed, err := utils.EncodePacked(
		utils.PackBytes32(crypto.Keccak256Hash(initializer)),
		utils.PackUint(256, SaltNonceForSafe(safe)),
	)
	if err != nil {
		return common.Address{}, err
	}
	return utils.GetCreate2AddressFromInitCode(config.ModuleFactory, crypto.Keccak256Hash(packed), initCode), nil
}

// DelayTxNonce Delay.txNonce()
func DelayTxNonce(ctx context.Context, reader ChainReader, delay common.Address) (*big.Int, error) {
	return callBigInt(ctx, reader, delay, delayABI, "txNonce")
}

// DelayQueueNonce Delay.queueNonce()
func DelayQueueNonce(ctx context.Context, reader ChainReader, delay common.Address) (*big.Int, error) {
	return callBigInt(ctx, reader, delay, delayABI, "queueNonce")
}

// DelayModules Delay.getModulesPaginated(0x1, 1000) 的模块列表
func DelayModules(ctx context.Context, reader ChainReader, delay common.Address) ([]common.Address, error) {
	values, err := call(ctx, reader, delay, delayABI, "getModulesPaginated", sentinelModules, big.NewInt(modulesPageSize))
	if err != nil {
		return nil, err
	}
	modules, ok := values[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("decode getModulesPaginated result: unexpected type %T", values[0])
	}
	return modules, nil
}

// ReadRecoveryState 读取 Delay 模块状态
func ReadRecoveryState(ctx context.Context, reader ChainReader, delay common.Address) (*RecoveryModuleState, error) {
	deployed, err := IsDeployed(ctx, reader, delay)
	if err != nil {
		return nil, err
	}
	if !deployed {
		return &RecoveryModuleState{Status: RecoveryNotDeployed}, nil
	}

	modules, err := DelayModules(ctx, reader, delay)
	if err != nil {
		return nil, err
	}
	state := &RecoveryModuleState{Status: RecoveryEnabled}
	if len(modules) > 0 {
		guardian := modules[0]
		state.Guardian = &guardian
	}

	if state.TxNonce, err = DelayTxNonce(ctx, reader, delay); err != nil {
		return nil, err
	}
	if state.QueueNonce, err = DelayQueueNonce(ctx, reader, delay); err != nil {
		return nil, err
	}
	if state.QueueNonce.Cmp(state.TxNonce) > 0 {
		state.Status = RecoveryQueued
	}
	return state, nil
}
